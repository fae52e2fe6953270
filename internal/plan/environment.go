package plan

import (
	"fmt"
	"path/filepath"

	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/sandbox"
	"github.com/vk/mortar/internal/target"
)

// HostPath returns the host file an input label denotes: another target's
// output, an exact host path or a source file of the workspace. A label
// naming a whole target fails with ErrNotAFile.
func (p *Plan) HostPath(in label.Label) (string, error) {
	if in.Exact {
		return "/" + in.Path(), nil
	}
	if in.Repository != p.Workspace.Repository {
		return "", fmt.Errorf("%w: %s", ErrExternalLabel, in)
	}
	if producer, ok := p.producers[in]; ok {
		return p.outputPath(producer, in), nil
	}
	if _, ok := p.Workspace.Lookup(in); ok {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, in)
	}
	return filepath.Join(p.Workspace.Root, filepath.FromSlash(in.Path())), nil
}

// Mappings returns the mappings of a target's sandbox: the read-only
// inputs followed by the writable output mapping. A file input is mounted
// at its package path; an input naming a target mounts each output that
// target declares, and nothing else of its output directory. A location
// reached through several inputs is mounted once.
func (p *Plan) Mappings(t *target.Target) ([]sandbox.Mapping, error) {
	mappings := make([]sandbox.Mapping, 0, len(t.Inputs)+1)
	seen := make(map[string]struct{}, len(t.Inputs))
	add := func(host string, at label.Label) {
		alias := at.Path()
		if _, dup := seen[alias]; dup {
			return
		}
		seen[alias] = struct{}{}
		mappings = append(mappings, sandbox.FromHost(host, alias, true))
	}

	for _, in := range t.Inputs {
		if named, ok := p.namedTarget(in); ok {
			for _, out := range named.Outputs {
				add(p.outputPath(named, out), out)
			}
			continue
		}
		host, err := p.HostPath(in)
		if err != nil {
			return nil, fmt.Errorf("target %s: input %s: %w", t.Label, in, err)
		}
		add(host, in)
	}
	mappings = append(mappings, sandbox.FromHost(p.OutputDir(t), OutputMount, false))
	return mappings, nil
}

// namedTarget returns the target an input names when the input is not
// also some target's output.
func (p *Plan) namedTarget(in label.Label) (*target.Target, bool) {
	if _, produced := p.producers[in]; produced {
		return nil, false
	}
	return p.Workspace.Lookup(in)
}

// Environment creates the sandbox a target's action runs in.
func (p *Plan) Environment(reg *sandbox.Registry, t *target.Target) (*sandbox.Environment, error) {
	mappings, err := p.Mappings(t)
	if err != nil {
		return nil, err
	}
	return reg.New(p.SandboxDir(t), mappings), nil
}

// Commands returns the full command sequence that builds t: sandbox setup
// followed by the target's own command run inside it. Targets without a
// command yield nil.
func (p *Plan) Commands(reg *sandbox.Registry, t *target.Target) (*sandbox.Environment, []sandbox.CommandSpec, error) {
	env, err := p.Environment(reg, t)
	if err != nil {
		return nil, nil, err
	}
	if !t.HasAction() {
		return env, nil, nil
	}
	cmds, err := env.RunCommand(t.Command[0], t.Command[1:]...)
	if err != nil {
		reg.Release(env.ID)
		return nil, nil, fmt.Errorf("target %s: %w", t.Label, err)
	}
	return env, cmds, nil
}
