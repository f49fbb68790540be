package nn

import "errors"

var (
	// ErrNilInput is returned when a required pointer or buffer is nil.
	ErrNilInput = errors.New("nn: nil input")
	// ErrInvalidArgument is returned for out-of-range configuration values
	// or undersized buffers.
	ErrInvalidArgument = errors.New("nn: invalid argument")
	// ErrInvalidOperation is returned when an operation is attempted in the
	// wrong lifecycle state, e.g. Forward after Destroy.
	ErrInvalidOperation = errors.New("nn: invalid operation")
)
