package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/events"
	"github.com/vk/mortar/internal/executor"
	"github.com/vk/mortar/internal/plan"
	"github.com/vk/mortar/internal/sandbox"
	"github.com/vk/mortar/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds per-layer concurrency when no limit is set.
const DefaultWorkers = 10

// Scheduler runs the targets of a plan through a Runner.
type Scheduler struct {
	plan      *plan.Plan
	runner    executor.Runner
	registry  *sandbox.Registry
	workers   int
	publisher events.Publisher
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	newID     func() string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers bounds how many targets of a layer run at once.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPublisher sets the build event sink.
func WithPublisher(p events.Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithMetrics records build metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTracerProvider records a span per run, layer and target.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) { s.tracer = tp.Tracer(telemetry.InstrumentationName) }
}

// New creates a Scheduler for p. Environments are created through reg.
func New(p *plan.Plan, runner executor.Runner, reg *sandbox.Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		plan:      p,
		runner:    runner,
		registry:  reg,
		workers:   DefaultWorkers,
		publisher: events.LogPublisher{},
		tracer:    noop.NewTracerProvider().Tracer(telemetry.InstrumentationName),
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run builds every layer in order. The returned Report is complete even
// when the build fails; the error then wraps ErrBuildFailed. A cancelled
// ctx stops the run after the current layer's commands have returned.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	invocation := s.newID()
	ctx = ctxlog.With(ctx, "invocation", invocation)
	logger := ctxlog.FromContext(ctx)

	ctx, span := s.tracer.Start(ctx, "build", trace.WithAttributes(
		attribute.String("mortar.invocation", invocation),
		attribute.Int("mortar.layers", len(s.plan.Layers)),
	))
	defer span.End()

	start := time.Now()
	report := &Report{Invocation: invocation}
	s.publish(ctx, events.Event{Invocation: invocation, Kind: events.BuildStarted})
	logger.Info("Build started.", "targets", len(s.plan.Targets), "layers", len(s.plan.Layers), "workers", s.workers)

	halted := false
	for i, layer := range s.plan.Layers {
		if !halted && ctx.Err() != nil {
			logger.Warn("Build cancelled.", "layer", i)
			halted = true
		}
		if halted {
			for _, id := range layer {
				res := Result{Target: id, Layer: i, Status: Skipped}
				s.finish(ctx, invocation, res)
				report.Results = append(report.Results, res)
			}
			continue
		}

		results := s.runLayer(ctx, invocation, i, layer)
		report.Results = append(report.Results, results...)
		for _, res := range results {
			if res.Status == Failed {
				halted = true
			}
		}
	}

	report.Duration = time.Since(start)
	err := report.Err()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	result := "succeeded"
	finished := events.Event{Invocation: invocation, Kind: events.BuildFinished, Layer: len(s.plan.Layers)}
	if err != nil {
		result = "failed"
		finished.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
	}
	finished.Status = result
	if s.metrics != nil {
		s.metrics.BuildFinished(result)
	}
	s.publish(ctx, finished)

	logger.Info("Build finished.",
		"result", result,
		"completed", report.Count(Completed),
		"failed", report.Count(Failed),
		"skipped", report.Count(Skipped),
		"duration", report.Duration,
		"environments", s.registry.Len(),
	)
	return report, err
}

func (s *Scheduler) runLayer(ctx context.Context, invocation string, index int, layer []string) []Result {
	logger := ctxlog.FromContext(ctx).With("layer", index)
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("layer %d", index), trace.WithAttributes(
		attribute.Int("mortar.layer", index),
		attribute.Int("mortar.width", len(layer)),
	))
	defer span.End()

	logger.Debug("Layer started.", "targets", layer)
	s.publish(ctx, events.Event{Invocation: invocation, Kind: events.LayerStarted, Layer: index})
	if s.metrics != nil {
		s.metrics.LayerStarted(len(layer))
	}

	results := make([]Result, len(layer))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for j, id := range layer {
		g.Go(func() error {
			res := s.runTarget(ctx, index, id)
			results[j] = res
			s.finish(ctx, invocation, res)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Scheduler) runTarget(ctx context.Context, layer int, id string) Result {
	res := Result{Target: id, Layer: layer, Status: Completed}
	logger := ctxlog.FromContext(ctx).With("target", id)
	ctx = ctxlog.WithLogger(ctx, logger)

	ctx, span := s.tracer.Start(ctx, id, trace.WithAttributes(attribute.String("mortar.target", id)))
	defer span.End()

	if s.metrics != nil {
		s.metrics.TargetStarted()
	}
	start := time.Now()
	err := s.build(ctx, id)
	res.Duration = time.Since(start)

	if err != nil {
		res.Status, res.Err = Failed, err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Target failed.", "error", err, "duration", res.Duration)
	} else {
		logger.Info("Target built.", "duration", res.Duration)
	}
	return res
}

// build runs one target's sandboxed command. Targets without a command
// succeed without running anything.
func (s *Scheduler) build(ctx context.Context, id string) error {
	t, ok := s.plan.Target(id)
	if !ok {
		return fmt.Errorf("%w: %s", plan.ErrUnknownTarget, id)
	}
	env, cmds, err := s.plan.Commands(s.registry, t)
	if err != nil {
		return err
	}
	defer s.registry.Release(env.ID)
	if cmds == nil {
		return nil
	}

	if p, ok := s.runner.(executor.Preparer); ok {
		dirs := append(env.MountPoints(), s.plan.OutputDir(t))
		if err := p.Prepare(ctx, dirs); err != nil {
			return err
		}
	}
	return s.runner.Run(ctx, cmds)
}

func (s *Scheduler) finish(ctx context.Context, invocation string, res Result) {
	ev := events.Event{
		Invocation: invocation,
		Kind:       events.TargetFinished,
		Target:     res.Target,
		Layer:      res.Layer,
		Status:     res.Status.String(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if s.metrics != nil {
		s.metrics.TargetFinished(res.Status.String(), res.Duration, res.Status != Skipped)
	}
	s.publish(ctx, ev)
}

func (s *Scheduler) publish(ctx context.Context, ev events.Event) {
	ev.Time = time.Now()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish build event.", "kind", string(ev.Kind), "error", err)
	}
}
