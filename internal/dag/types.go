package dag

import "sync"

// Graph is a collection of nodes and their declared dependencies.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes maps a node ID to the IDs it depends on, in declaration order.
	// Duplicates are kept as declared; they do not change the layering.
	nodes map[string][]string
}
