package provider

import (
	"github.com/vkngwrapper/ownership/memutils/metadata"
)

//go:generate mockgen -source provider.go -destination ./mocks/provider.go

// Reservation identifies a range of bytes handed out by a Provider. Consumers treat it as opaque and
// hand it back to the same Provider's Free method exactly once.
type Reservation struct {
	// Offset is the position of the range within the provider's address space
	Offset int
	// Size is the number of bytes that were requested
	Size int
	// Alignment is the alignment that was requested. Offset is always a multiple of it.
	Alignment uint
	// Handle is the provider-specific identifier of the reservation
	Handle metadata.BlockAllocationHandle
}

// Provider is a source of memory reservations keyed only by size and alignment. It has no knowledge
// of the type of the value a reservation will hold.
//
// The Go runtime owns the bytes backing every value so that values holding pointers stay visible to
// the garbage collector. A Provider governs admission, placement and accounting of those bytes: a
// value may only be built once its reservation has been granted, and the reservation must be returned
// when the value's storage is given up.
type Provider interface {
	// Allocate reserves size bytes aligned to alignment. size must be at least 1 and alignment must be
	// a power of two. When the request cannot be satisfied the returned error satisfies
	// errors.Is(err, memutils.ErrOutOfMemory).
	Allocate(size int, alignment uint) (Reservation, error)
	// Free returns a reservation to the provider. It never fails outward: misuse such as freeing a
	// reservation twice is logged and otherwise ignored.
	Free(reservation Reservation)
}

var defaultProvider Provider = NewHeap(nil, HeapOptions{})

// Default returns the process-wide Heap provider used when no provider is supplied
func Default() Provider {
	return defaultProvider
}
