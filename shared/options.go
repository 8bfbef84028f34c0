package shared

import (
	"github.com/anacrolix/generics"
	"github.com/vkngwrapper/ownership/provider"
)

// Deleter destroys a value whose last owner was released. It is called exactly once, possibly with
// a nil pointer if the handle was created from one.
type Deleter[T any] func(value *T)

// Destroyer is implemented by values that need to release resources when their last owner is
// released. When no Deleter is configured, Destroy is called on the value before it is reset to its
// zero value.
type Destroyer interface {
	Destroy()
}

// CreateOptions contains optional settings when creating a Ptr from an existing value. It is valid
// to leave all the fields blank.
type CreateOptions[T any] struct {
	// Deleter replaces the default destruction of the value
	Deleter Deleter[T]
	// Provider supplies the control block's reservation. If nil, provider.Default() is used.
	Provider provider.Provider
}

func (o CreateOptions[T]) resolveProvider() provider.Provider {
	if o.Provider == nil {
		return provider.Default()
	}

	return o.Provider
}

func destroyValue[T any](value *T) {
	if value == nil {
		return
	}

	if destroyer, ok := any(value).(Destroyer); ok {
		destroyer.Destroy()
	}
	generics.SetZero(value)
}
