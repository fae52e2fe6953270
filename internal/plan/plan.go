package plan

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/mortar/internal/buildfile"
	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/dag"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/target"
)

// OutputDirName is the workspace directory holding build outputs. The
// leading dot keeps the build file loader out of it.
const OutputDirName = ".mortar-out"

// OutputMount is where a target's output directory appears inside its
// sandbox.
const OutputMount = "/out"

// Plan is the scheduling view of a workspace.
type Plan struct {
	Workspace *buildfile.Workspace
	Graph     *dag.Graph
	// Layers are the scheduling waves, see dag.Graph.Layers.
	Layers [][]string
	// Targets maps a node id to its target.
	Targets map[string]*target.Target
	// SandboxRoot is the host directory environments are rooted under.
	SandboxRoot string

	producers map[label.Label]*target.Target
}

// Build derives the dependency graph of ws and computes its layers.
func Build(ctx context.Context, ws *buildfile.Workspace, sandboxRoot string) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building plan.", "targets", len(ws.Targets))

	p := &Plan{
		Workspace:   ws,
		Graph:       dag.New(),
		Targets:     make(map[string]*target.Target, len(ws.Targets)),
		SandboxRoot: sandboxRoot,
		producers:   make(map[label.Label]*target.Target),
	}

	for _, t := range ws.Targets {
		p.Targets[t.ID()] = t
		p.Graph.AddNode(t.ID())
		for _, out := range t.Outputs {
			if prev, ok := p.producers[out]; ok {
				return nil, fmt.Errorf("%w: %s by %s and %s", ErrConflictingOutput, out, prev.Label, t.Label)
			}
			p.producers[out] = t
		}
	}

	for _, t := range ws.Targets {
		for _, dep := range t.Deps {
			if _, ok := ws.Lookup(dep); !ok {
				return nil, fmt.Errorf("target %s: dep %s: %w", t.Label, dep, ErrUnknownTarget)
			}
			if err := p.Graph.AddDep(t.ID(), dep.String()); err != nil {
				return nil, err
			}
		}
		for _, in := range t.Inputs {
			producer := p.producer(in)
			if producer == nil {
				continue
			}
			if err := p.Graph.AddDep(t.ID(), producer.ID()); err != nil {
				return nil, err
			}
		}
	}

	layers, err := p.Graph.Layers()
	if err != nil {
		return nil, fmt.Errorf("failed to compute build layers: %w", err)
	}
	p.Layers = layers

	logger.Debug("Plan built.", "nodes", p.Graph.Len(), "layers", len(layers))
	return p, nil
}

// producer returns the target an input comes from: the target that
// declares it as an output, or the target it names. Source files have no
// producer.
func (p *Plan) producer(in label.Label) *target.Target {
	if t, ok := p.producers[in]; ok {
		return t
	}
	if t, ok := p.Workspace.Lookup(in); ok {
		return t
	}
	return nil
}

// Select returns a plan restricted to the given targets and everything
// they transitively depend on. An empty selection returns p.
func (p *Plan) Select(labels ...label.Label) (*Plan, error) {
	if len(labels) == 0 {
		return p, nil
	}

	ids := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := p.Workspace.Lookup(l); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, l)
		}
		ids = append(ids, l.String())
	}

	closure, err := p.Graph.Closure(ids...)
	if err != nil {
		return nil, err
	}
	sub := p.Graph.Subgraph(closure)
	layers, err := sub.Layers()
	if err != nil {
		return nil, fmt.Errorf("failed to compute build layers: %w", err)
	}

	targets := make(map[string]*target.Target, len(closure))
	for _, id := range closure {
		targets[id] = p.Targets[id]
	}
	return &Plan{
		Workspace:   p.Workspace,
		Graph:       sub,
		Layers:      layers,
		Targets:     targets,
		SandboxRoot: p.SandboxRoot,
		producers:   p.producers,
	}, nil
}

// Target returns the target with node id.
func (p *Plan) Target(id string) (*target.Target, bool) {
	t, ok := p.Targets[id]
	return t, ok
}

// OutputDir is the host directory a target's outputs are written to. Every
// target owns its own directory, so targets of one layer never share a
// writable location.
func (p *Plan) OutputDir(t *target.Target) string {
	return filepath.Join(p.Workspace.Root, OutputDirName, filepath.FromSlash(t.Label.Package), filepath.FromSlash(t.Label.Target))
}

// outputPath is the host file an output label of producer is written to.
// Outputs in the producer's own package are named by target alone.
func (p *Plan) outputPath(producer *target.Target, out label.Label) string {
	name := out.Target
	if out.Package != producer.Label.Package {
		name = out.Path()
	}
	return filepath.Join(p.OutputDir(producer), filepath.FromSlash(name))
}

// SandboxDir is the host directory a target's environment is rooted at.
func (p *Plan) SandboxDir(t *target.Target) string {
	return filepath.Join(p.SandboxRoot, filepath.FromSlash(t.Label.Package), t.Label.Target)
}
