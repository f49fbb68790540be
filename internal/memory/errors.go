package memory

import "errors"

// Sentinel errors reported by the tracker.
var (
	// ErrNilInput is returned when a required buffer argument is nil.
	ErrNilInput = errors.New("memory: nil input")
	// ErrInvalidArgument is returned for malformed sizes or alignments,
	// and for frees of regions the tracker never handed out.
	ErrInvalidArgument = errors.New("memory: invalid argument")
	// ErrAllocFailed is returned when the tracker could not obtain memory.
	ErrAllocFailed = errors.New("memory: allocation failed")
)
