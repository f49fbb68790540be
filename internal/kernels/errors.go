package kernels

import "errors"

// Sentinel errors reported by the kernels.
var (
	// ErrNilInput is returned when a required slice argument is nil.
	ErrNilInput = errors.New("kernels: nil input")
	// ErrInvalidArgument is returned for dimension mismatches.
	ErrInvalidArgument = errors.New("kernels: invalid argument")
)
