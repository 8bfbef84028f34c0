package shared

import (
	"github.com/anacrolix/chansync"
	"github.com/anacrolix/generics"
)

// Weak is an observing handle to a managed value. It keeps the value's control block alive but not
// the value itself. The zero value is an empty handle.
//
// Like Ptr, a Weak must be duplicated with Clone or Assign and never with =, and every handle that
// is not empty must eventually be passed to Release (or Reset) exactly once.
type Weak[T any] struct {
	object *T
	cb     controlBlock
}

// WeakFrom returns a new observing handle to the value owned by p. If p is empty, so is the result.
func WeakFrom[T any](p Ptr[T]) Weak[T] {
	if p.cb != nil {
		acquireWeak(p.cb)
	}

	return Weak[T]{object: p.object, cb: p.cb}
}

func (w *Weak[T]) owner() controlBlock {
	return w.cb
}

// Clone returns a new observing handle to the same value, incrementing the weak count
func (w *Weak[T]) Clone() Weak[T] {
	if w.cb != nil {
		acquireWeak(w.cb)
	}

	return Weak[T]{object: w.object, cb: w.cb}
}

// Assign makes w an observer of the value other refers to, releasing whatever w previously observed
func (w *Weak[T]) Assign(other Weak[T]) {
	if other.cb != nil {
		acquireWeak(other.cb)
	}

	old := *w
	*w = other
	old.Release()
}

// Move transfers w to the returned handle and leaves w empty
func (w *Weak[T]) Move() Weak[T] {
	moved := *w
	*w = Weak[T]{}
	return moved
}

// MoveFrom transfers other to w, leaving other empty and releasing whatever w previously observed
func (w *Weak[T]) MoveFrom(other *Weak[T]) {
	if w == other {
		return
	}

	old := *w
	*w = other.Move()
	old.Release()
}

// Release stops observing and leaves w empty. If w was the last handle of any kind referring to the
// control block, the block's reservation is returned to its provider.
func (w *Weak[T]) Release() {
	cb := w.cb
	*w = Weak[T]{}

	if cb != nil {
		releaseWeak(cb)
	}
}

// Reset is equivalent to Release
func (w *Weak[T]) Reset() {
	w.Release()
}

// Swap exchanges the values observed by w and other without changing any counts
func (w *Weak[T]) Swap(other *Weak[T]) {
	*w, *other = *other, *w
}

// Expired returns true if the observed value has been destroyed or w is empty
func (w *Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

// Lock returns a new owning handle to the observed value, or an empty handle if the value has
// already been destroyed
func (w *Weak[T]) Lock() Ptr[T] {
	if w.Expired() {
		return Ptr[T]{}
	}

	acquireShared(w.cb)
	return Ptr[T]{object: w.object, cb: w.cb}
}

// TryLock is Lock, reporting failure through the returned option's Ok field
func (w *Weak[T]) TryLock() generics.Option[Ptr[T]] {
	if w.Expired() {
		return generics.None[Ptr[T]]()
	}

	return generics.Some(w.Lock())
}

// UseCount returns the number of owners of the observed value, or 0 if w is empty
func (w *Weak[T]) UseCount() int {
	if w.cb == nil {
		return 0
	}

	return w.cb.counts().shared
}

// IsEmpty returns true if w has no control block
func (w *Weak[T]) IsEmpty() bool {
	return w.cb == nil
}

// Owns reports whether w and other refer to the same control block
func (w *Weak[T]) Owns(other Owner) bool {
	return w.cb != nil && w.cb == other.owner()
}

// State returns the lifecycle stage of w's control block. An empty handle reports
// BlockStateDeallocated.
func (w *Weak[T]) State() BlockState {
	if w.cb == nil {
		return BlockStateDeallocated
	}

	return w.cb.counts().state
}

// Destroyed returns a signal that is set when the observed value is destroyed, or nil if w is empty
func (w *Weak[T]) Destroyed() *chansync.SetOnce {
	if w.cb == nil {
		return nil
	}

	return &w.cb.counts().destroyed
}
