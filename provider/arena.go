package provider

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/ownership/internal/utils"
	"github.com/vkngwrapper/ownership/memutils"
	"github.com/vkngwrapper/ownership/memutils/metadata"
	"golang.org/x/exp/slog"
)

// ArenaOptions contains optional settings when creating an Arena. It is valid to leave all the fields blank.
type ArenaOptions struct {
	// Flags indicates specific provider behaviors to activate or deactivate
	Flags CreateFlags
	// Strategy chooses where in the arena new reservations are placed
	Strategy metadata.AllocationStrategy
	// Callbacks is an optional set of callbacks executed when reservations are granted and returned
	Callbacks *CallbackOptions
}

// Arena is a Provider with a fixed capacity. Reservations are placed within a single range of
// bytes tracked by a metadata.BlockMetadata, and requests that do not fit anywhere in the range fail
// with memutils.ErrOutOfMemory.
type Arena struct {
	logger    *slog.Logger
	mutex     utils.OptionalRWMutex
	flags     CreateFlags
	strategy  metadata.AllocationStrategy
	callbacks reservationCallbacks

	metadata metadata.BlockMetadata
}

var _ Provider = &Arena{}

// NewArena creates an Arena managing size bytes. If logger is nil, slog.Default() is used.
func NewArena(logger *slog.Logger, size int, options ArenaOptions) (*Arena, error) {
	if size < 1 {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "arena size is %d", size)
	}

	if logger == nil {
		logger = slog.Default()
	}

	arena := &Arena{
		logger:   logger,
		flags:    options.Flags,
		strategy: options.Strategy,
		metadata: metadata.NewFreeListBlockMetadata(),
	}
	arena.mutex.UseMutex = options.Flags&CreateExternallySynchronized == 0
	arena.callbacks.Callbacks = options.Callbacks
	arena.callbacks.Provider = arena
	arena.metadata.Init(size)

	logger.Debug("Arena::New",
		slog.Int("Size", size),
		slog.String("Flags", options.Flags.String()),
		slog.String("Strategy", options.Strategy.String()),
	)

	return arena, nil
}

func (a *Arena) Allocate(size int, alignment uint) (Reservation, error) {
	err := memutils.CheckReservation(size, alignment)
	if err != nil {
		return Reservation{}, err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	success, request, err := a.metadata.CreateAllocationRequest(size, alignment, a.strategy)
	if err != nil {
		return Reservation{}, err
	}

	if !success {
		a.logger.Debug("Arena::Allocate failed",
			slog.Int("Size", size),
			slog.Int("SumFreeSize", a.metadata.SumFreeSize()),
		)
		return Reservation{}, errors.Wrapf(memutils.ErrOutOfMemory,
			"arena of %d bytes has no free region for %d bytes at alignment %d", a.metadata.Size(), size, alignment)
	}

	handle, err := a.metadata.Alloc(request, nil)
	if err != nil {
		return Reservation{}, err
	}

	reservation := Reservation{
		Offset:    request.Offset,
		Size:      size,
		Alignment: alignment,
		Handle:    handle,
	}

	err = a.metadata.SetAllocationUserData(handle, reservation)
	if err != nil {
		return Reservation{}, err
	}
	memutils.DebugValidate(a.metadata)

	a.logger.Debug("Arena::Allocate",
		slog.Int("Offset", reservation.Offset),
		slog.Int("Size", size),
		slog.Uint64("Alignment", uint64(alignment)),
	)
	a.callbacks.Allocate(reservation)

	return reservation, nil
}

func (a *Arena) Free(reservation Reservation) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	userData, err := a.metadata.AllocationUserData(reservation.Handle)
	if err == nil && userData != reservation {
		err = errors.Errorf("reservation at offset %d does not match the arena's record of it", reservation.Offset)
	}
	if err == nil {
		err = a.metadata.Free(reservation.Handle)
	}

	if err != nil {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "Arena::Free received a reservation that is not live",
			slog.Int("Offset", reservation.Offset),
			slog.Int("Size", reservation.Size),
			slog.Any("error", err),
		)
		return
	}
	memutils.DebugValidate(a.metadata)

	a.logger.Debug("Arena::Free",
		slog.Int("Offset", reservation.Offset),
		slog.Int("Size", reservation.Size),
	)
	a.callbacks.Free(reservation)
}

// Destroy releases the arena. It returns an error, after logging every reservation that is still
// live, if any reservations were not freed beforehand.
func (a *Arena) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.metadata.IsEmpty() {
		err := a.metadata.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, userData any, free bool) error {
			if free {
				return nil
			}

			a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed reservation",
				slog.Int("offset", offset),
				slog.Int("size", size),
				slog.Any("userData", userData),
			)
			return nil
		})
		if err != nil {
			a.logger.LogAttrs(context.Background(),
				slog.LevelError,
				"[UNRELEASED MEMORY] error while iterating unreleased memory",
				slog.Any("error", err))
		}

		return errors.Errorf("%d reservations were not freed before the destruction of this arena", a.metadata.AllocationCount())
	}

	a.metadata.Clear()
	return nil
}

// Validate performs internal consistency checks on the arena's metadata
func (a *Arena) Validate() error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.metadata.Validate()
}

// AddStatistics sums the arena's statistics into the provided memutils.Statistics object
func (a *Arena) AddStatistics(stats *memutils.Statistics) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	a.metadata.AddStatistics(stats)
}

// AddDetailedStatistics sums the arena's statistics into the provided memutils.DetailedStatistics object
func (a *Arena) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	a.metadata.AddDetailedStatistics(stats)
}

// IsEmpty returns true if the arena has no live reservations
func (a *Arena) IsEmpty() bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.metadata.IsEmpty()
}

// BuildStatsString produces a JSON document describing the arena. When detailed is true, every
// region of the arena is listed.
func (a *Arena) BuildStatsString(detailed bool) string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	a.metadata.AddDetailedStatistics(&stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Flags").String(a.flags.String())
	obj.Name("Strategy").String(a.strategy.String())

	totalObj := obj.Name("Total").Object()
	printStatistics(&totalObj, &stats)
	totalObj.End()

	if detailed {
		blockObj := obj.Name("Block").Object()
		a.metadata.BlockJsonData(&blockObj)
		a.printDetailedMapRegions(&blockObj)
		blockObj.End()
	}

	obj.End()
	return string(writer.Bytes())
}

func (a *Arena) printDetailedMapRegions(json *jwriter.ObjectState) {
	arrayState := json.Name("Regions").Array()
	defer arrayState.End()

	_ = a.metadata.VisitAllRegions(
		func(handle metadata.BlockAllocationHandle, offset int, size int, userData any, free bool) error {
			obj := arrayState.Object()
			defer obj.End()

			reservation, isReservation := userData.(Reservation)
			if isReservation {
				size = reservation.Size
			}

			obj.Name("Offset").Int(offset)
			obj.Name("Size").Int(size)
			obj.Name("Free").Bool(free)

			if isReservation {
				obj.Name("Alignment").Int(int(reservation.Alignment))
			} else if userData != nil {
				obj.Name("CustomData").String(fmt.Sprintf("%+v", userData))
			}

			return nil
		})
}

func printStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("BlockCount").Int(stats.BlockCount)
	json.Name("BlockBytes").Int(stats.BlockBytes)
	json.Name("ReservationCount").Int(stats.ReservationCount)
	json.Name("ReservationBytes").Int(stats.ReservationBytes)
	json.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)

	if stats.ReservationCount > 0 {
		json.Name("ReservationSizeMin").Int(stats.ReservationSizeMin)
		json.Name("ReservationSizeMax").Int(stats.ReservationSizeMax)
	}

	if stats.UnusedRangeCount > 0 {
		json.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		json.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
}
