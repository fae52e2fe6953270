package sandbox

import (
	"sync"
)

// Registry creates Environments and remembers where each one is rooted, so
// that references between environments can be resolved. It implements
// Resolver and is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	roots map[ID]string
	tools Tools
}

// NewRegistry creates an empty Registry whose environments use tools.
func NewRegistry(tools Tools) *Registry {
	return &Registry{
		roots: make(map[ID]string),
		tools: tools.withDefaults(),
	}
}

// New creates an Environment, records its root and wires the registry in
// as its resolver.
func (r *Registry) New(root string, mappings []Mapping, opts ...Option) *Environment {
	opts = append([]Option{WithTools(r.tools), WithResolver(r)}, opts...)
	e := New(root, mappings, opts...)

	r.mu.Lock()
	r.roots[e.ID] = root
	r.mu.Unlock()
	return e
}

// RootOf implements Resolver.
func (r *Registry) RootOf(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root, ok := r.roots[id]
	return root, ok
}

// Release forgets an environment once it has been torn down. References
// into it stop resolving.
func (r *Registry) Release(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.roots, id)
}

// Len returns the number of live environments.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.roots)
}
