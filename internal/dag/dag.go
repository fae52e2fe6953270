package dag

import (
	"fmt"
	"slices"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string][]string),
	}
}

// AddNode registers a node with an optional initial dependency list. Adding
// an existing ID replaces its dependency list.
func (g *Graph) AddNode(id string, deps ...string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.nodes[id] = append([]string{}, deps...)
}

// AddDep appends dep to the dependency list of id. Only id has to exist;
// see the package documentation on forward references.
func (g *Graph) AddDep(id, dep string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	deps, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	g.nodes[id] = append(deps, dep)
	return nil
}

// Has reports whether id was added to the graph.
func (g *Graph) Has(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return len(g.nodes)
}

// Nodes returns all node IDs in lexical order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return g.sortedIDs()
}

// Deps returns the dependency list of id exactly as declared.
func (g *Graph) Deps(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	deps, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return slices.Clone(deps), nil
}

// ReverseDeps returns every node whose dependency list contains id, in
// lexical order. An unknown id simply has no reverse dependencies.
func (g *Graph) ReverseDeps(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var rdeps []string
	for nodeID, deps := range g.nodes {
		if slices.Contains(deps, id) {
			rdeps = append(rdeps, nodeID)
		}
	}
	sort.Strings(rdeps)
	return rdeps
}

// Validate checks that every declared dependency names a registered node.
func (g *Graph) Validate() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return g.validate()
}

// DetectCycles returns a *CycleError if the graph contains a cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if path := g.findCycle(); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}

// Closure returns the given nodes plus everything they transitively depend
// on, in lexical order.
func (g *Graph) Closure(ids ...string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	seen := make(map[string]struct{})
	stack := slices.Clone(ids)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		deps, ok := g.nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
		}
		seen[id] = struct{}{}
		stack = append(stack, deps...)
	}

	closure := make([]string, 0, len(seen))
	for id := range seen {
		closure = append(closure, id)
	}
	sort.Strings(closure)
	return closure, nil
}

// Subgraph returns a new graph holding only the given nodes and the edges
// between them.
func (g *Graph) Subgraph(ids []string) *Graph {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	sub := New()
	for id := range keep {
		deps, ok := g.nodes[id]
		if !ok {
			continue
		}
		var kept []string
		for _, dep := range deps {
			if _, ok := keep[dep]; ok {
				kept = append(kept, dep)
			}
		}
		sub.nodes[id] = append([]string{}, kept...)
	}
	return sub
}

func (g *Graph) validate() error {
	for _, id := range g.sortedIDs() {
		for _, dep := range g.nodes[id] {
			if _, ok := g.nodes[dep]; !ok {
				return fmt.Errorf("%w: %q (dependency of %q)", ErrNodeNotFound, dep, id)
			}
		}
	}
	return nil
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// findCycle runs a depth-first search with three node states and returns
// the first cycle it meets, or nil. Dependencies on unknown nodes are
// ignored here; validate reports them.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = visiting
		stack = append(stack, id)

		for _, dep := range g.nodes[id] {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			switch state[dep] {
			case visiting:
				start := slices.Index(stack, dep)
				return append(slices.Clone(stack[start:]), dep)
			case unvisited:
				if path := visit(dep); path != nil {
					return path
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = visited
		return nil
	}

	for _, id := range g.sortedIDs() {
		if state[id] == unvisited {
			if path := visit(id); path != nil {
				return path
			}
		}
	}
	return nil
}
