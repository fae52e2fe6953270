package dag

import (
	"sort"
)

// Layers partitions all nodes into generations so that every dependency of
// a node lives in a strictly earlier layer and each node is placed as early
// as possible. Nodes inside a layer are sorted; callers must not depend on
// that order.
//
// The graph must be complete (see Validate) and acyclic. A violation is
// reported as ErrNodeNotFound or a *CycleError instead of looping.
func (g *Graph) Layers() ([][]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if err := g.validate(); err != nil {
		return nil, err
	}

	// remaining counts the distinct dependencies not yet placed in a layer.
	remaining := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for id, deps := range g.nodes {
		seen := make(map[string]struct{}, len(deps))
		for _, dep := range deps {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			dependents[dep] = append(dependents[dep], id)
		}
		remaining[id] = len(seen)
	}

	var current []string
	for id, n := range remaining {
		if n == 0 {
			current = append(current, id)
		}
	}

	var layers [][]string
	placed := 0
	for len(current) > 0 {
		sort.Strings(current)
		layers = append(layers, current)
		placed += len(current)

		var next []string
		for _, id := range current {
			for _, dependent := range dependents[id] {
				remaining[dependent]--
				if remaining[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		current = next
	}

	if placed != len(g.nodes) {
		if path := g.findCycle(); path != nil {
			return nil, &CycleError{Path: path}
		}
		return nil, ErrCycleDetected
	}
	return layers, nil
}

// LayerOf returns a lookup from node ID to its layer index.
func LayerOf(layers [][]string) map[string]int {
	index := make(map[string]int)
	for i, layer := range layers {
		for _, id := range layer {
			index[id] = i
		}
	}
	return index
}
