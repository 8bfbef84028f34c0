package shared

import (
	"unsafe"

	"github.com/vkngwrapper/ownership/provider"
)

// coLocatedBlock is the control block for a value that lives inside the block's own reservation
type coLocatedBlock[T any] struct {
	blockCounts

	provider    provider.Provider
	reservation provider.Reservation
	value       T
}

var _ controlBlock = &coLocatedBlock[int]{}

func newCoLocatedBlock[T any](prov provider.Provider) (*coLocatedBlock[T], error) {
	var layout coLocatedBlock[T]
	reservation, err := prov.Allocate(int(unsafe.Sizeof(layout)), uint(unsafe.Alignof(layout)))
	if err != nil {
		return nil, err
	}

	return &coLocatedBlock[T]{
		blockCounts: blockCounts{shared: 1},
		provider:    prov,
		reservation: reservation,
	}, nil
}

func (b *coLocatedBlock[T]) destroyObject() {
	destroyValue(&b.value)
}

func (b *coLocatedBlock[T]) deallocateSelf() {
	b.provider.Free(b.reservation)
	b.provider = nil
}

// abandon returns the reservation of a block whose value was never constructed
func (b *coLocatedBlock[T]) abandon() {
	b.shared = 0
	b.state = BlockStateDeallocated
	b.deallocateSelf()
}
