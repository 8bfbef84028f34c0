package provider

import (
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/ownership/internal/utils"
	"github.com/vkngwrapper/ownership/memutils/metadata"
)

// Recorder is a Provider that forwards to another Provider while counting the calls made to it.
// It is primarily useful for verifying how many reservations a piece of code makes.
type Recorder struct {
	inner Provider
	mutex utils.OptionalMutex

	allocateCalls  int
	failedAllocate int
	freeCalls      int
	liveBytes      int
	granted        *swiss.Map[metadata.BlockAllocationHandle, Reservation]
}

var _ Provider = &Recorder{}

// NewRecorder creates a Recorder forwarding to inner. If inner is nil, Default() is used.
func NewRecorder(inner Provider) *Recorder {
	if inner == nil {
		inner = Default()
	}

	recorder := &Recorder{
		inner:   inner,
		granted: swiss.NewMap[metadata.BlockAllocationHandle, Reservation](42),
	}
	recorder.mutex.UseMutex = true
	return recorder
}

func (r *Recorder) Allocate(size int, alignment uint) (Reservation, error) {
	reservation, err := r.inner.Allocate(size, alignment)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.allocateCalls++
	if err != nil {
		r.failedAllocate++
		return reservation, err
	}

	r.liveBytes += reservation.Size
	r.granted.Put(reservation.Handle, reservation)
	return reservation, nil
}

// Free forwards to the inner provider. The call is always counted, but only a reservation this
// recorder granted and has not seen freed leaves the live totals.
func (r *Recorder) Free(reservation Reservation) {
	r.inner.Free(reservation)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.freeCalls++

	granted, ok := r.granted.Get(reservation.Handle)
	if !ok || granted != reservation {
		return
	}

	r.granted.Delete(reservation.Handle)
	r.liveBytes -= reservation.Size
}

// AllocateCalls returns the number of times Allocate was called, including failed calls
func (r *Recorder) AllocateCalls() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.allocateCalls
}

// FailedAllocateCalls returns the number of Allocate calls that returned an error
func (r *Recorder) FailedAllocateCalls() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.failedAllocate
}

// FreeCalls returns the number of times Free was called, including frees of reservations that
// were not live
func (r *Recorder) FreeCalls() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.freeCalls
}

// Live returns the number of granted reservations that have not been freed
func (r *Recorder) Live() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.granted.Count()
}

// LiveBytes returns the number of bytes covered by granted reservations that have not been freed
func (r *Recorder) LiveBytes() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.liveBytes
}
