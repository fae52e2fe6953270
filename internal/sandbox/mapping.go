package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mapping binds a source Reference to a location inside an Environment.
type Mapping struct {
	Source Reference
	// Alias is the location inside the environment. When empty, a
	// read-only mapping is mounted at the final component of Source.Path
	// under the root, while a writable mapping is bound at the full
	// Source.Path inside the guest.
	Alias    string
	ReadOnly bool
}

// FromHost creates a Mapping for a host path.
func FromHost(path, alias string, readOnly bool) Mapping {
	return Mapping{Source: HostPath(path), Alias: alias, ReadOnly: readOnly}
}

// FromReference creates a Mapping for an arbitrary Reference.
func FromReference(ref Reference, alias string, readOnly bool) Mapping {
	return Mapping{Source: ref, Alias: alias, ReadOnly: readOnly}
}

// Target returns the mount location of a read-only mapping relative to
// the environment root.
func (m Mapping) Target() string {
	if m.Alias != "" {
		return m.Alias
	}
	return filepath.Base(m.Source.Path)
}

// MountSpec renders the mapping the way the sandbox-entry bind flag
// expects it: the resolved source path with every ':' escaped as `\:`,
// followed by `:<alias>` when an alias is set.
func (m Mapping) MountSpec(res Resolver) (string, error) {
	src, err := m.Source.RealPath(res)
	if err != nil {
		return "", err
	}
	if m.Alias != "" && !insideRoot(m.Alias) {
		return "", fmt.Errorf("%w: alias %q", ErrEscapesRoot, m.Alias)
	}
	spec := strings.ReplaceAll(src, ":", `\:`)
	if m.Alias != "" {
		spec += ":" + m.Alias
	}
	return spec, nil
}

// BindCommand returns the setup command that mounts the source read-only at
// the mapping's target location under root. A target that would land
// outside root is rejected with ErrEscapesRoot.
func (m Mapping) BindCommand(root string, res Resolver, tools Tools) (CommandSpec, error) {
	if !insideRoot(m.Target()) {
		return CommandSpec{}, fmt.Errorf("%w: mount point %q", ErrEscapesRoot, m.Target())
	}
	src, err := m.Source.RealPath(res)
	if err != nil {
		return CommandSpec{}, err
	}
	return CommandSpec{
		Program: tools.withDefaults().Bindfs,
		Args:    []string{"--no-allow-other", "-r", src, m.MountPoint(root)},
	}, nil
}

// MountPoint is the host directory under root the mapping is mounted on.
func (m Mapping) MountPoint(root string) string {
	return filepath.Join(root, m.Target())
}

// insideRoot reports whether p, taken relative to an environment root,
// names a location below that root. One leading '/' is accepted since the
// root is the guest's '/'.
func insideRoot(p string) bool {
	return filepath.IsLocal(strings.TrimPrefix(p, "/"))
}
