package label

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLabel is returned when label text does not match the grammar.
	ErrInvalidLabel = errors.New("invalid label")

	// ErrMissingTarget is returned when a label resolves to the repository
	// root and names no explicit target, so no default can be inferred.
	ErrMissingTarget = errors.New("missing target")
)

// ParseError records the label text that failed to resolve.
type ParseError struct {
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Text)
	}
	return fmt.Sprintf("%v: %q: %s", e.Err, e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func invalid(text, reason string) error {
	return &ParseError{Text: text, Reason: reason, Err: ErrInvalidLabel}
}
