package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/mortar/internal/plan"
)

// Layers prints the scheduling layers of the selected targets, one line
// per layer.
func (a *App) Layers(ctx context.Context, labels []string) error {
	p, err := a.selectPlan(ctx, labels)
	if err != nil {
		return err
	}
	for i, layer := range p.Layers {
		fmt.Fprintf(a.outW, "layer %d: %s\n", i, strings.Join(layer, " "))
	}
	return nil
}

// Sandbox prints the command sequence that builds one target.
func (a *App) Sandbox(ctx context.Context, text string) error {
	labels, err := a.ParseLabels([]string{text})
	if err != nil {
		return err
	}
	p, err := a.Plan(ctx)
	if err != nil {
		return err
	}
	t, ok := p.Workspace.Lookup(labels[0])
	if !ok {
		return fmt.Errorf("%w: %s", plan.ErrUnknownTarget, labels[0])
	}

	_, cmds, err := p.Commands(a.Registry(), t)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		fmt.Fprintln(a.outW, cmd)
	}
	return nil
}

func (a *App) selectPlan(ctx context.Context, texts []string) (*plan.Plan, error) {
	labels, err := a.ParseLabels(texts)
	if err != nil {
		return nil, err
	}
	p, err := a.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return p.Select(labels...)
}
