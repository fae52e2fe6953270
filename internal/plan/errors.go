package plan

import "errors"

var (
	// ErrUnknownTarget is returned when a dep or a selected label names no
	// declared target.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrConflictingOutput is returned when two targets declare the same
	// output.
	ErrConflictingOutput = errors.New("output declared by more than one target")
	// ErrExternalLabel is returned for an input that lives in another
	// repository.
	ErrExternalLabel = errors.New("label refers to another repository")

	// ErrNotAFile is returned when a host path is asked for a label that
	// names a whole target.
	ErrNotAFile = errors.New("label names a target, not a file")
)
