package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/events"
	"github.com/vk/mortar/internal/executor"
	"github.com/vk/mortar/internal/scheduler"
	"github.com/vk/mortar/internal/telemetry"
)

// BuildOptions selects what Build does.
type BuildOptions struct {
	Labels []string
	// DryRun prints the command sequences instead of running them.
	DryRun bool
}

// Build plans the workspace and runs the selected targets.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*scheduler.Report, error) {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Build started.", "labels", opts.Labels, "dry_run", opts.DryRun)

	p, err := a.selectPlan(ctx, opts.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to plan build: %w", err)
	}
	if len(p.Targets) == 0 {
		logger.Warn("No targets found, nothing to build.")
		return &scheduler.Report{}, nil
	}

	metrics := telemetry.NewMetrics()
	if a.config.HealthcheckPort > 0 {
		srv, err := telemetry.StartServer(ctx, fmt.Sprintf(":%d", a.config.HealthcheckPort), metrics)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Health check server shutdown failed", "error", err)
			}
		}()
	}

	tp, shutdownTracing, err := telemetry.InitTracing(ctx, a.settings.Telemetry.Trace, a.config.Version, a.outW)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Trace exporter shutdown failed", "error", err)
		}
	}()

	publisher, err := a.publisher(ctx)
	if err != nil {
		return nil, err
	}
	defer publisher.Close()

	var runner executor.Runner = executor.NewLocal(a.outW)
	if opts.DryRun {
		runner = executor.NewDryRun(a.outW)
	}

	s := scheduler.New(p, runner, a.Registry(),
		scheduler.WithWorkers(a.settings.Workers),
		scheduler.WithPublisher(publisher),
		scheduler.WithMetrics(metrics),
		scheduler.WithTracerProvider(tp),
	)
	report, err := s.Run(ctx)
	if err != nil && !errors.Is(err, scheduler.ErrBuildFailed) {
		return report, fmt.Errorf("execution failed: %w", err)
	}
	return report, err
}

// publisher returns the log publisher, fanned out to a socket.io sink when
// events.url is set.
func (a *App) publisher(ctx context.Context) (events.Publisher, error) {
	if a.settings.Events.URL == "" {
		return events.LogPublisher{}, nil
	}
	sock, err := events.DialSocket(ctx, events.SocketOptions{
		URL:       a.settings.Events.URL,
		Namespace: a.settings.Events.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	return events.Multi{events.LogPublisher{}, sock}, nil
}
