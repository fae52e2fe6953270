// Package events publishes the progress of a build as a stream of events.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/vk/mortar/internal/ctxlog"
)

// Kind names what an Event reports.
type Kind string

const (
	BuildStarted   Kind = "build_started"
	LayerStarted   Kind = "layer_started"
	TargetFinished Kind = "target_finished"
	BuildFinished  Kind = "build_finished"
)

// Event is one step of a build.
type Event struct {
	Invocation string    `json:"invocation"`
	Kind       Kind      `json:"kind"`
	Target     string    `json:"target,omitempty"`
	Layer      int       `json:"layer"`
	Status     string    `json:"status,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// Publisher delivers events. Publish must be safe for concurrent use;
// targets of one layer finish concurrently.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher writes every event to the context logger.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx)
	args := []any{"invocation", ev.Invocation, "kind", string(ev.Kind), "layer", ev.Layer}
	if ev.Target != "" {
		args = append(args, "target", ev.Target)
	}
	if ev.Status != "" {
		args = append(args, "status", ev.Status)
	}
	if ev.Error != "" {
		args = append(args, "error", ev.Error)
		logger.Warn("Build event.", args...)
		return nil
	}
	logger.Debug("Build event.", args...)
	return nil
}

// Close implements Publisher.
func (LogPublisher) Close() error { return nil }

// Multi fans events out to several publishers. Every publisher sees every
// event; errors are joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
