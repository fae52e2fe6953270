// Package executor runs the command sequences derived from sandbox
// environments.
//
// A Runner receives the ordered CommandSpec list of one target: setup
// commands followed by the sandbox-entry command. It runs them one after
// the other and stops at the first failure. Runners that also implement
// Preparer are asked to create the host directories the sequence needs
// before it starts.
package executor

import (
	"context"

	"github.com/vk/mortar/internal/sandbox"
)

// Runner runs one target's command sequence.
type Runner interface {
	Run(ctx context.Context, specs []sandbox.CommandSpec) error
}

// Preparer creates directories that must exist before a sequence runs.
type Preparer interface {
	Prepare(ctx context.Context, dirs []string) error
}
