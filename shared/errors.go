package shared

import "github.com/pkg/errors"

// ErrAllocationFailure is matched by errors returned when a memory provider could not grant the
// reservation for a control block or value. The provider's own error remains in the chain. The
// marker is matched by errors.Is from github.com/cockroachdb/errors.
var ErrAllocationFailure = errors.New("allocation failure")

// ErrConstructionFailure is matched by errors returned when a value's constructor fails during
// Make, Allocate or NewValue. The constructor's error remains in the chain. The marker is matched
// by errors.Is from github.com/cockroachdb/errors.
var ErrConstructionFailure = errors.New("construction failure")
