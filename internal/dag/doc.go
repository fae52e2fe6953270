// Package dag holds the dependency graph of a build invocation and derives
// the order in which its nodes may run.
//
// # Model
//
// A Graph maps opaque string node identifiers to the list of identifiers
// each node depends on. Nodes are registered with AddNode, edges appended
// with AddDep. The graph is built once per invocation and discarded after
// scheduling.
//
// # Layers
//
// Layers partitions the nodes into generations: layer 0 holds every node
// without dependencies, and every other node sits exactly one layer after
// the deepest of its dependencies. All nodes of a layer may run
// concurrently once every earlier layer has completed. This is a leveling
// of the graph, not a transitive reduction; no edges are removed.
//
// Layers checks its precondition instead of trusting the caller: a
// dependency on an unregistered node fails with ErrNodeNotFound and a cycle
// (including a node depending on itself) fails with ErrCycleDetected.
//
// # Forward references
//
// AddDep only requires the dependent node to exist. The dependency may be
// registered later, which lets callers add nodes and edges in any order.
// Dangling edges are reported by Validate and Layers.
//
// # Thread-Safety
//
// All Graph methods are safe for concurrent use.
package dag
