package buildfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/target"
)

// ErrDuplicateTarget is returned when two target blocks resolve to the
// same label.
var ErrDuplicateTarget = errors.New("duplicate target")

// Loader evaluates build files. A Loader caches parsed files, so a fresh
// one is used for every reload of a workspace.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a build file loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load finds and evaluates every build file below root. Directories whose
// name starts with '.' or '_' are skipped.
func (l *Loader) Load(ctx context.Context, root, repository string) (*Workspace, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build file loader started.", "root", root, "repository", repository)

	files, err := findBuildFiles(root)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered build files.", "count", len(files))

	ws := NewWorkspace(root, repository)
	for _, path := range files {
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to locate package of %s: %w", path, err)
		}
		pkg := filepath.ToSlash(rel)
		if pkg == "." {
			pkg = ""
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read build file %s: %w", path, err)
		}
		if err := l.evaluate(ctx, ws, path, src, pkg); err != nil {
			return nil, err
		}
	}

	logger.Debug("Build file loading complete.", "files", len(ws.Files), "targets", len(ws.Targets))
	return ws, nil
}

// LoadSource evaluates a single build file held in memory as package pkg
// of a workspace rooted at root.
func (l *Loader) LoadSource(ctx context.Context, root, repository, filename string, src []byte, pkg string) (*Workspace, error) {
	ws := NewWorkspace(root, repository)
	if err := l.evaluate(ctx, ws, filename, src, pkg); err != nil {
		return nil, err
	}
	return ws, nil
}

func (l *Loader) evaluate(ctx context.Context, ws *Workspace, filename string, src []byte, pkg string) error {
	logger := ctxlog.FromContext(ctx).With("file", filename, "package", pkg)

	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse build file %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode build file %s: %w", filename, diags)
	}

	ectx := evalContext(ws.Repository, pkg)
	labels := label.Context{Repository: ws.Repository, Package: pkg}

	for _, block := range content.Blocks {
		t, err := decodeTarget(block, ectx, labels)
		if err != nil {
			return err
		}
		if err := ws.add(t, block.DefRange); err != nil {
			return fmt.Errorf("%s: %w", block.DefRange, err)
		}
		logger.Debug("Target declared.", "target", t.ID(), "inputs", len(t.Inputs), "outputs", len(t.Outputs))
	}
	ws.Files = append(ws.Files, filename)
	return nil
}

func decodeTarget(block *hcl.Block, ectx *hcl.EvalContext, labels label.Context) (*target.Target, error) {
	name := block.Labels[0]
	self, err := labels.Resolve(":" + name)
	if err != nil {
		return nil, fmt.Errorf("%s: target name: %w", block.LabelRanges[0], err)
	}

	var body targetBody
	if diags := gohcl.DecodeBody(block.Body, ectx, &body); diags.HasErrors() {
		return nil, fmt.Errorf("target %s: %w", self, diags)
	}

	inputs, err := resolveAttr(body.Inputs, ectx, labels, "inputs")
	if err != nil {
		return nil, err
	}
	outputs, err := resolveAttr(body.Outputs, ectx, labels, "outputs")
	if err != nil {
		return nil, err
	}
	deps, err := resolveAttr(body.Deps, ectx, labels, "deps")
	if err != nil {
		return nil, err
	}
	command, diags := commandWords(body.Command, ectx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("target %s: %w", self, diags)
	}

	t := target.New(inputs, outputs)
	t.Label = self
	t.Deps = deps
	t.Command = command
	return t, nil
}

// resolveAttr evaluates a list attribute and resolves each element as a
// label. Errors carry the attribute's source range.
func resolveAttr(expr hcl.Expression, ectx *hcl.EvalContext, labels label.Context, attr string) ([]label.Label, error) {
	texts, diags := stringList(expr, ectx, attr)
	if diags.HasErrors() {
		return nil, diags
	}
	resolved, err := labels.ResolveAll(texts)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", expr.Range(), attr, err)
	}
	return resolved, nil
}

func findBuildFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error accessing workspace %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == FileName {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
