package sandbox

import (
	"fmt"
	"path/filepath"
)

// Resolver maps an environment to the host directory it was materialized
// in.
type Resolver interface {
	RootOf(id ID) (string, bool)
}

// Reference is a location that is either a host path (Env is nil) or a
// path relative to the root of another Environment.
type Reference struct {
	Env  *ID
	Path string
}

// HostPath creates a Reference to a host filesystem path.
func HostPath(path string) Reference {
	return Reference{Path: path}
}

// EnvPath creates a Reference to path inside the environment id.
func EnvPath(id ID, path string) Reference {
	return Reference{Env: &id, Path: path}
}

// InEnvironment reports whether the reference points into an Environment.
func (r Reference) InEnvironment() bool {
	return r.Env != nil
}

// RealPath returns the host path the reference denotes. Host references
// are returned unchanged. Environment references are joined onto the root
// res reports for that environment; a nil res or an unknown environment
// yields ErrUnsupported.
func (r Reference) RealPath(res Resolver) (string, error) {
	if !r.InEnvironment() {
		return r.Path, nil
	}
	if res == nil {
		return "", fmt.Errorf("%w: %s (no resolver)", ErrUnsupported, r.Env)
	}
	root, ok := res.RootOf(*r.Env)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, r.Env)
	}
	return filepath.Join(root, r.Path), nil
}

// Equal reports whether both references denote the same location.
func (r Reference) Equal(other Reference) bool {
	if r.InEnvironment() != other.InEnvironment() {
		return false
	}
	if r.Env != nil && *r.Env != *other.Env {
		return false
	}
	return r.Path == other.Path
}

func (r Reference) String() string {
	if !r.InEnvironment() {
		return r.Path
	}
	return r.Env.String() + ":" + r.Path
}
