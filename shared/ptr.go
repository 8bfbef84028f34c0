package shared

import (
	"github.com/anacrolix/chansync"
)

// Ptr is an owning handle to a managed value. The zero value is an empty handle.
//
// Ptr must be duplicated with Clone or Assign and never with =, and every handle that is not empty
// must eventually be passed to Release (or Reset) exactly once. A Ptr may be passed by value to
// functions in this package that accept one, which read it without taking ownership.
type Ptr[T any] struct {
	object *T
	cb     controlBlock
}

// Owner is implemented by Ptr and Weak of any type
type Owner interface {
	owner() controlBlock
}

func (p *Ptr[T]) owner() controlBlock {
	return p.cb
}

// Clone returns a new owning handle to the same value, incrementing the shared count
func (p *Ptr[T]) Clone() Ptr[T] {
	if p.cb != nil {
		acquireShared(p.cb)
	}

	return Ptr[T]{object: p.object, cb: p.cb}
}

// Assign makes p an owner of the value other refers to, releasing whatever p previously owned.
// Assigning a handle to itself leaves the counts unchanged.
func (p *Ptr[T]) Assign(other Ptr[T]) {
	if other.cb != nil {
		acquireShared(other.cb)
	}

	old := *p
	*p = other
	old.Release()
}

// Move transfers p's ownership to the returned handle and leaves p empty
func (p *Ptr[T]) Move() Ptr[T] {
	moved := *p
	*p = Ptr[T]{}
	return moved
}

// MoveFrom transfers other's ownership to p, leaving other empty and releasing whatever p
// previously owned
func (p *Ptr[T]) MoveFrom(other *Ptr[T]) {
	if p == other {
		return
	}

	old := *p
	*p = other.Move()
	old.Release()
}

// Release gives up p's ownership and leaves p empty. If p was the last owner, the value is
// destroyed. Releasing an empty handle does nothing.
func (p *Ptr[T]) Release() {
	cb := p.cb
	*p = Ptr[T]{}

	if cb != nil {
		releaseShared(cb)
	}
}

// Reset is equivalent to Release
func (p *Ptr[T]) Reset() {
	p.Release()
}

// ResetTo replaces the value p owns with value, as though by NewWithOptions. If the new control
// block cannot be reserved, p is left unchanged and the error follows the contract of
// NewWithOptions.
func (p *Ptr[T]) ResetTo(value *T, options CreateOptions[T]) error {
	replacement, err := NewWithOptions(value, options)
	if err != nil {
		return err
	}

	p.MoveFrom(&replacement)
	return nil
}

// Swap exchanges the values referred to by p and other without changing any counts
func (p *Ptr[T]) Swap(other *Ptr[T]) {
	*p, *other = *other, *p
}

// Get returns the managed value, or nil if p is empty
func (p *Ptr[T]) Get() *T {
	return p.object
}

// UseCount returns the number of owners of p's value, or 0 if p is empty
func (p *Ptr[T]) UseCount() int {
	if p.cb == nil {
		return 0
	}

	return p.cb.counts().shared
}

// IsEmpty returns true if p has no control block
func (p *Ptr[T]) IsEmpty() bool {
	return p.cb == nil
}

// Owns reports whether p and other refer to the same control block, regardless of the types they
// are viewed as. Two empty handles do not own anything in common.
func (p *Ptr[T]) Owns(other Owner) bool {
	return p.cb != nil && p.cb == other.owner()
}

// Weak returns a new observing handle to p's value
func (p *Ptr[T]) Weak() Weak[T] {
	return WeakFrom(*p)
}

// Destroyed returns a signal that is set when p's value is destroyed, or nil if p is empty
func (p *Ptr[T]) Destroyed() *chansync.SetOnce {
	if p.cb == nil {
		return nil
	}

	return &p.cb.counts().destroyed
}
