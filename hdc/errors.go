package hdc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for non-positive dimensions, zero-length
	// vectors, non-bipolar components and empty symbols.
	ErrInvalidArgument = errors.New("hdc: invalid argument")

	// ErrDimensionMismatch is returned when an operator receives vectors of
	// differing length. Use errors.As with *DimensionMismatchError for details.
	ErrDimensionMismatch = errors.New("hdc: dimension mismatch")

	// ErrEmptyInput is returned when bundling or encoding an empty collection.
	ErrEmptyInput = errors.New("hdc: empty input")
)

// DimensionMismatchError reports the expected and actual dimensions.
// It unwraps to ErrDimensionMismatch.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("hdc: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
