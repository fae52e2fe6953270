package sandbox

import "errors"

// ErrUnsupported is returned when a Reference points into an Environment
// whose materialized root is unknown to the resolver in use.
var ErrUnsupported = errors.New("unsupported: reference into an unknown environment")

// ErrEscapesRoot is returned when a mapping would be mounted outside the
// environment root.
var ErrEscapesRoot = errors.New("mount location escapes the environment root")
