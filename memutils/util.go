package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// CheckReservation verifies that a size and alignment pair can be handed to a memory provider
func CheckReservation(size int, alignment uint) error {
	if size < 1 {
		return cerrors.Wrapf(ErrInvalidSize, "size is %d", size)
	}

	return CheckPow2(alignment, "alignment")
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}
