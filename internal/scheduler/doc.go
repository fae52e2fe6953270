// Package scheduler builds a plan layer by layer.
//
// Every target of a layer runs concurrently, bounded by the worker limit,
// and the scheduler waits for the whole layer before looking at the next.
// A failing target does not cancel its siblings: the layer always runs to
// completion. If any target of a layer failed, every target of the later
// layers is reported as Skipped and nothing more runs.
//
// Each Run gets a fresh invocation id that ties together its log records,
// its build events and its trace spans.
package scheduler
