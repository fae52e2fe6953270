package dag

import (
	"errors"
	"strings"
)

var (
	// ErrNodeNotFound is returned when an operation references a node that
	// was never added to the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrCycleDetected is returned when the graph is not acyclic.
	ErrCycleDetected = errors.New("cycle detected")
)

// CycleError describes one cycle found in the graph. Path starts and ends
// with the same node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return ErrCycleDetected.Error() + ": " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}
