package sandbox

import (
	"strconv"
	"strings"
)

// CommandSpec is one process invocation: a program and its arguments. It
// is never a shell string.
type CommandSpec struct {
	Program string
	Args    []string
}

// Argv returns the program followed by its arguments.
func (c CommandSpec) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// String renders the command for display, quoting words that a shell would
// split or interpret.
func (c CommandSpec) String() string {
	words := c.Argv()
	for i, w := range words {
		if w == "" || strings.ContainsAny(w, " \t\n\"'\\$`;&|<>()*?[]{}#~") {
			words[i] = strconv.Quote(w)
		}
	}
	return strings.Join(words, " ")
}

// Tools names the programs used to build a sandbox.
type Tools struct {
	// Proot enters the sandbox and binds writable mappings.
	Proot string
	// Bindfs mounts read-only mappings.
	Bindfs string
}

// DefaultTools resolves both programs through PATH.
var DefaultTools = Tools{
	Proot:  "proot",
	Bindfs: "bindfs",
}

func (t Tools) withDefaults() Tools {
	if t.Proot == "" {
		t.Proot = DefaultTools.Proot
	}
	if t.Bindfs == "" {
		t.Bindfs = DefaultTools.Bindfs
	}
	return t
}
