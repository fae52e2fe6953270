package executor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vk/mortar/internal/sandbox"
)

// DryRun prints command sequences instead of running them.
type DryRun struct {
	mu  sync.Mutex
	out io.Writer
}

// NewDryRun creates a DryRun runner printing to out.
func NewDryRun(out io.Writer) *DryRun {
	return &DryRun{out: out}
}

// Prepare implements Preparer.
func (d *DryRun) Prepare(ctx context.Context, dirs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, dir := range dirs {
		if _, err := fmt.Fprintln(d.out, sandbox.CommandSpec{Program: "mkdir", Args: []string{"-p", dir}}); err != nil {
			return err
		}
	}
	return nil
}

// Run implements Runner. A whole sequence is printed without interleaving
// with other sequences.
func (d *DryRun) Run(ctx context.Context, specs []sandbox.CommandSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, spec := range specs {
		if _, err := fmt.Fprintln(d.out, spec); err != nil {
			return err
		}
	}
	return nil
}
