// Package plan turns a loaded workspace into a build plan: a dependency
// graph over target labels, its scheduling layers, and the sandbox each
// target's action runs in.
//
// Inside a sandbox every input is mounted read-only at <package>/<target>
// and the target writes its outputs to /out, which is backed by the
// package's directory in the workspace output tree.
package plan
