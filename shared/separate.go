package shared

import (
	"unsafe"

	"github.com/vkngwrapper/ownership/provider"
)

// separateBlock is the control block for a value that was allocated independently of it
type separateBlock[T any] struct {
	blockCounts

	value       *T
	deleter     Deleter[T]
	provider    provider.Provider
	reservation provider.Reservation
}

var _ controlBlock = &separateBlock[int]{}

func newSeparateBlock[T any](value *T, deleter Deleter[T], prov provider.Provider) (*separateBlock[T], error) {
	var layout separateBlock[T]
	reservation, err := prov.Allocate(int(unsafe.Sizeof(layout)), uint(unsafe.Alignof(layout)))
	if err != nil {
		return nil, err
	}

	return &separateBlock[T]{
		blockCounts: blockCounts{shared: 1},
		value:       value,
		deleter:     deleter,
		provider:    prov,
		reservation: reservation,
	}, nil
}

func (b *separateBlock[T]) destroyObject() {
	value := b.value
	deleter := b.deleter
	b.value = nil
	b.deleter = nil

	if deleter != nil {
		deleter(value)
		return
	}

	destroyValue(value)
}

func (b *separateBlock[T]) deallocateSelf() {
	b.provider.Free(b.reservation)
	b.provider = nil
}
