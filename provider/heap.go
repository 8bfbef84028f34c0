package provider

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/ownership/internal/utils"
	"github.com/vkngwrapper/ownership/memutils"
	"github.com/vkngwrapper/ownership/memutils/metadata"
	"golang.org/x/exp/slog"
)

// HeapOptions contains optional settings when creating a Heap. It is valid to leave all the fields blank.
type HeapOptions struct {
	// Flags indicates specific provider behaviors to activate or deactivate
	Flags CreateFlags
	// SizeLimit is the maximum number of bytes that may be reserved at the same time. Requests beyond
	// the limit fail with memutils.ErrOutOfMemory. 0 or a negative value means no limit.
	SizeLimit int
	// Callbacks is an optional set of callbacks executed when reservations are granted and returned
	Callbacks *CallbackOptions
}

// Heap is a Provider with no fixed capacity. Every reservation is granted unless a SizeLimit was
// configured and would be exceeded. Offsets are handed out from an ever-increasing virtual address
// space, so two live reservations never overlap.
type Heap struct {
	logger    *slog.Logger
	mutex     utils.OptionalMutex
	flags     CreateFlags
	sizeLimit int
	callbacks reservationCallbacks

	nextHandle    metadata.BlockAllocationHandle
	nextOffset    int
	reservedBytes int
	live          *swiss.Map[metadata.BlockAllocationHandle, Reservation]
}

var _ Provider = &Heap{}

// NewHeap creates a new Heap provider. If logger is nil, slog.Default() is used.
func NewHeap(logger *slog.Logger, options HeapOptions) *Heap {
	if logger == nil {
		logger = slog.Default()
	}

	heap := &Heap{
		logger:    logger,
		flags:     options.Flags,
		sizeLimit: options.SizeLimit,
		live:      swiss.NewMap[metadata.BlockAllocationHandle, Reservation](42),
	}
	heap.mutex.UseMutex = options.Flags&CreateExternallySynchronized == 0
	heap.callbacks.Callbacks = options.Callbacks
	heap.callbacks.Provider = heap

	return heap
}

func (h *Heap) Allocate(size int, alignment uint) (Reservation, error) {
	err := memutils.CheckReservation(size, alignment)
	if err != nil {
		return Reservation{}, err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.sizeLimit > 0 && h.reservedBytes+size > h.sizeLimit {
		return Reservation{}, errors.Wrapf(memutils.ErrOutOfMemory,
			"heap limit is %d bytes, %d are reserved and %d more were requested", h.sizeLimit, h.reservedBytes, size)
	}

	h.nextHandle++
	reservation := Reservation{
		Offset:    memutils.AlignUp(h.nextOffset, alignment),
		Size:      size,
		Alignment: alignment,
		Handle:    h.nextHandle,
	}
	h.nextOffset = reservation.Offset + size + memutils.DebugMargin
	h.reservedBytes += size
	h.live.Put(reservation.Handle, reservation)

	h.logger.Debug("Heap::Allocate",
		slog.Int("Offset", reservation.Offset),
		slog.Int("Size", size),
		slog.Uint64("Alignment", uint64(alignment)),
	)
	h.callbacks.Allocate(reservation)

	return reservation, nil
}

func (h *Heap) Free(reservation Reservation) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	live, ok := h.live.Get(reservation.Handle)
	if !ok || live != reservation {
		h.logger.LogAttrs(context.Background(), slog.LevelError, "Heap::Free received a reservation that is not live",
			slog.Int("Offset", reservation.Offset),
			slog.Int("Size", reservation.Size),
			slog.Uint64("Handle", uint64(reservation.Handle)),
		)
		return
	}

	h.live.Delete(reservation.Handle)
	h.reservedBytes -= reservation.Size

	h.logger.Debug("Heap::Free",
		slog.Int("Offset", reservation.Offset),
		slog.Int("Size", reservation.Size),
	)
	h.callbacks.Free(reservation)
}

// AddStatistics sums the heap's live reservations into the provided memutils.Statistics object
func (h *Heap) AddStatistics(stats *memutils.Statistics) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	stats.ReservationCount += h.live.Count()
	stats.ReservationBytes += h.reservedBytes
}

// IsEmpty returns true if the heap has no live reservations
func (h *Heap) IsEmpty() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.live.Count() == 0
}

// Flags returns the flags the heap was created with
func (h *Heap) Flags() CreateFlags {
	return h.flags
}
