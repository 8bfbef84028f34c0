//go:build !debug_mem_utils

package memutils

const (
	// DebugMargin is the number of bytes that memory providers leave unused after each reservation
	// so that overruns in accounting show up as validation failures
	DebugMargin int = 0
)

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}
