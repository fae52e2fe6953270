package sandbox

import (
	"fmt"
	"slices"
)

// Environment is a sandbox root plus the mappings visible inside it. The
// mapping list is fixed at construction; deriving commands does not
// change the Environment.
type Environment struct {
	ID       ID
	Root     string
	Mappings []Mapping

	tools    Tools
	resolver Resolver
}

// Option configures an Environment.
type Option func(*Environment)

// WithTools overrides the sandbox programs.
func WithTools(tools Tools) Option {
	return func(e *Environment) {
		e.tools = tools.withDefaults()
	}
}

// WithResolver sets the resolver used for references into other
// environments.
func WithResolver(res Resolver) Option {
	return func(e *Environment) {
		e.resolver = res
	}
}

// New creates an Environment with a fresh ID. The mappings are copied.
func New(root string, mappings []Mapping, opts ...Option) *Environment {
	e := &Environment{
		ID:       NewID(),
		Root:     root,
		Mappings: slices.Clone(mappings),
		tools:    DefaultTools,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reference returns a Reference to path inside this environment.
func (e *Environment) Reference(path string) Reference {
	return EnvPath(e.ID, path)
}

// Commands returns the setup commands followed by the sandbox-entry
// command. Read-only mappings become bindfs setup commands in mapping
// order; writable mappings become bind arguments of the final command.
func (e *Environment) Commands() ([]CommandSpec, error) {
	tools := e.tools.withDefaults()

	var (
		setup []CommandSpec
		binds []string
	)
	for i, m := range e.Mappings {
		if m.ReadOnly {
			cmd, err := m.BindCommand(e.Root, e.resolver, tools)
			if err != nil {
				return nil, fmt.Errorf("mapping %d of %s: %w", i, e.ID, err)
			}
			setup = append(setup, cmd)
			continue
		}
		spec, err := m.MountSpec(e.resolver)
		if err != nil {
			return nil, fmt.Errorf("mapping %d of %s: %w", i, e.ID, err)
		}
		binds = append(binds, "-b", spec)
	}

	enter := CommandSpec{
		Program: tools.Proot,
		Args:    append([]string{"-r", e.Root}, binds...),
	}
	return append(setup, enter), nil
}

// RunCommand is Commands with program and args appended verbatim to the
// final sandbox-entry command.
func (e *Environment) RunCommand(program string, args ...string) ([]CommandSpec, error) {
	cmds, err := e.Commands()
	if err != nil {
		return nil, err
	}
	last := &cmds[len(cmds)-1]
	last.Args = append(last.Args, program)
	last.Args = append(last.Args, args...)
	return cmds, nil
}

// MountPoints lists the directories that must exist before the setup
// commands run: the root itself and the mount point of every read-only
// mapping.
func (e *Environment) MountPoints() []string {
	points := []string{e.Root}
	for _, m := range e.Mappings {
		if m.ReadOnly {
			points = append(points, m.MountPoint(e.Root))
		}
	}
	return points
}
