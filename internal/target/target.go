// Package target defines the buildable unit of a workspace.
package target

import (
	"github.com/vk/mortar/internal/label"
)

// Target pairs the labels a build action reads with the labels it
// produces. It is created when a build file is evaluated and is read-only
// afterwards.
type Target struct {
	// Label is the target's own address.
	Label label.Label
	// Inputs are the labels the action reads.
	Inputs []label.Label
	// Outputs are the labels the action produces.
	Outputs []label.Label
	// Deps are targets that must be built first even when none of their
	// outputs are consumed.
	Deps []label.Label
	// Command is the program followed by its arguments. Empty for targets
	// that only group other targets.
	Command []string
}

// New creates a Target that owns copies of the given label lists.
func New(inputs, outputs []label.Label) *Target {
	return &Target{
		Inputs:  append([]label.Label(nil), inputs...),
		Outputs: append([]label.Label(nil), outputs...),
	}
}

// ID returns the identifier used for the target in the dependency graph.
func (t *Target) ID() string {
	return t.Label.String()
}

// HasAction reports whether building the target runs a command.
func (t *Target) HasAction() bool {
	return len(t.Command) > 0
}
