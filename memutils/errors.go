package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrOutOfMemory is returned by memory providers when a reservation cannot be satisfied from the
// range they manage
var ErrOutOfMemory error = errors.New("out of memory")

// ErrInvalidSize is returned when a reservation is requested with a size smaller than one byte
var ErrInvalidSize error = errors.New("reservation size must be at least 1 byte")
