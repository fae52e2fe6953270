package buildfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/target"
)

// FileName is the build file looked up in every package directory.
const FileName = "BUILD.hcl"

// Workspace is the evaluated content of every build file below Root.
type Workspace struct {
	Root       string
	Repository string
	// Files lists the evaluated build files in walk order.
	Files []string
	// Targets holds every declared target in file and declaration order.
	Targets []*target.Target

	byLabel  map[label.Label]*target.Target
	declared map[label.Label]hcl.Range
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(root, repository string) *Workspace {
	return &Workspace{
		Root:       root,
		Repository: repository,
		byLabel:    make(map[label.Label]*target.Target),
		declared:   make(map[label.Label]hcl.Range),
	}
}

// Add registers a target. A second target with the same label is
// rejected with ErrDuplicateTarget.
func (w *Workspace) Add(t *target.Target) error {
	return w.add(t, hcl.Range{})
}

func (w *Workspace) add(t *target.Target, rng hcl.Range) error {
	if _, ok := w.byLabel[t.Label]; ok {
		if prev := w.declared[t.Label]; prev.Filename != "" {
			return fmt.Errorf("%w %s, first declared at %s", ErrDuplicateTarget, t.Label, prev)
		}
		return fmt.Errorf("%w %s", ErrDuplicateTarget, t.Label)
	}
	w.byLabel[t.Label] = t
	w.declared[t.Label] = rng
	w.Targets = append(w.Targets, t)
	return nil
}

// Lookup returns the target declared under l.
func (w *Workspace) Lookup(l label.Label) (*target.Target, bool) {
	t, ok := w.byLabel[l]
	return t, ok
}

// Context returns the label context of the workspace root package.
func (w *Workspace) Context() label.Context {
	return label.Context{Repository: w.Repository}
}
