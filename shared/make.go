package shared

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/ownership/provider"
)

// Value returns a constructor for Make, Allocate or NewValue that copies value into place
func Value[T any](value T) func(*T) error {
	return func(target *T) error {
		*target = value
		return nil
	}
}

// constructOrRelease runs construct on value and calls release if construct returns an error or
// panics. A panic continues after release returns.
func constructOrRelease[T any](value *T, construct func(*T) error, release func()) error {
	if construct == nil {
		return nil
	}

	constructed := false
	defer func() {
		if !constructed {
			release()
		}
	}()

	err := construct(value)
	constructed = err == nil
	return err
}

// Make builds a value in place and returns its first owner. The control block and the value share a
// single reservation from provider.Default(). construct receives a pointer to the zero value and may
// be nil to keep it as-is.
func Make[T any](construct func(*T) error) (Ptr[T], error) {
	return Allocate(provider.Default(), construct)
}

// Allocate is Make with a caller-supplied provider. If prov is nil, provider.Default() is used.
//
// If the reservation cannot be granted, the error matches ErrAllocationFailure. If construct
// fails, the reservation is returned to prov before the error, which matches
// ErrConstructionFailure, is returned. If construct panics, the reservation is returned to prov
// and the panic continues.
func Allocate[T any](prov provider.Provider, construct func(*T) error) (Ptr[T], error) {
	if prov == nil {
		prov = provider.Default()
	}

	block, err := newCoLocatedBlock[T](prov)
	if err != nil {
		return Ptr[T]{}, errors.Mark(errors.Wrap(err, "could not reserve a co-located control block"), ErrAllocationFailure)
	}

	err = constructOrRelease(&block.value, construct, block.abandon)
	if err != nil {
		return Ptr[T]{}, errors.Mark(errors.Wrap(err, "could not construct value"), ErrConstructionFailure)
	}

	return Ptr[T]{object: &block.value, cb: block}, nil
}

// New takes ownership of value and returns its first owner. The control block is reserved from
// provider.Default() separately from the value, and the value is destroyed with the default
// destruction when the last owner is released.
func New[T any](value *T) (Ptr[T], error) {
	return NewWithOptions(value, CreateOptions[T]{})
}

// NewWithOptions takes ownership of value and returns its first owner, using the deleter and
// provider in options.
//
// Ownership of value passes to this function when it is called. If the control block cannot be
// reserved, value is destroyed as it would have been by the last owner, and an error matching
// ErrAllocationFailure is returned. The caller must not use value afterward.
func NewWithOptions[T any](value *T, options CreateOptions[T]) (Ptr[T], error) {
	block, err := newSeparateBlock(value, options.Deleter, options.resolveProvider())
	if err != nil {
		if options.Deleter != nil {
			options.Deleter(value)
		} else {
			destroyValue(value)
		}

		return Ptr[T]{}, errors.Mark(errors.Wrap(err, "could not reserve a control block"), ErrAllocationFailure)
	}

	return Ptr[T]{object: value, cb: block}, nil
}

// NewValue builds a standalone value through prov and returns it with a Deleter that destroys it and
// returns its reservation. Passing both to NewWithOptions with the same provider produces a Ptr
// backed by exactly two reservations: one for the value and one for the control block.
//
// If prov is nil, provider.Default() is used. Errors follow the contract of Allocate.
func NewValue[T any](prov provider.Provider, construct func(*T) error) (*T, Deleter[T], error) {
	if prov == nil {
		prov = provider.Default()
	}

	var layout T
	reservation, err := prov.Allocate(max(1, int(unsafe.Sizeof(layout))), uint(unsafe.Alignof(layout)))
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrap(err, "could not reserve a value"), ErrAllocationFailure)
	}

	value := new(T)
	err = constructOrRelease(value, construct, func() {
		prov.Free(reservation)
	})
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrap(err, "could not construct value"), ErrConstructionFailure)
	}

	deleter := func(v *T) {
		destroyValue(v)
		prov.Free(reservation)
	}

	return value, deleter, nil
}
