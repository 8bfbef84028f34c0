// Package shared provides reference-counted ownership of heap values.
//
// A Ptr is an owning handle: while at least one Ptr refers to a value, the value is kept alive. When
// the last Ptr is released, the value is destroyed exactly once. A Weak is an observing handle: it
// keeps the bookkeeping for a value alive without keeping the value itself alive, and can be
// promoted to a Ptr for as long as the value has not been destroyed.
//
// Every managed value has a control block, which holds the counts and decides when the value is
// destroyed and when the block's own memory reservation is returned to its provider.Provider. There
// are two kinds of control block. New and NewWithOptions place the control block in its own
// reservation, separate from the value. Make and Allocate reserve a single range that holds both the
// control block and the value. The two are indistinguishable through a handle.
//
// Handles are not safe for concurrent use. Counts are plain integers, and mutating handles that refer
// to the same control block from more than one goroutine without external synchronization is
// undefined behavior. Handles are also Go values: copying a Ptr or Weak with = instead of Clone
// creates a handle that is not counted, and releasing both copies will corrupt the counts.
package shared
