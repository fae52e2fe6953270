package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/mortar/internal/buildfile"
	"github.com/vk/mortar/internal/config"
	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/plan"
	"github.com/vk/mortar/internal/sandbox"
)

// App holds the settings and dependencies shared by every command.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	settings *config.Config
}

// NewApp builds an App writing results to outW and logs to logW. It loads
// mortar.yaml from the workspace and applies the command-line overrides.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	settings, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Workspace settings loaded.", "workspace", cfg.Workspace, "repository", settings.Repository, "workers", settings.Workers)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		settings: settings,
	}, nil
}

// loadSettings reads mortar.yaml and applies the command-line overrides.
func loadSettings(cfg *Config) (*config.Config, error) {
	settings, err := config.Load(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace settings: %w", err)
	}
	if cfg.Workers > 0 {
		settings.Workers = cfg.Workers
	}
	if cfg.Repository != "" {
		settings.Repository = cfg.Repository
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// reload re-reads the settings file. On failure the previous settings
// stay in effect.
func (a *App) reload(ctx context.Context) {
	settings, err := loadSettings(a.config)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Keeping previous settings.", "error", err)
		return
	}
	a.settings = settings
}

// Settings returns the effective workspace settings.
func (a *App) Settings() *config.Config {
	return a.settings
}

// Context attaches the App's logger to ctx.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Registry creates a sandbox registry using the configured tools.
func (a *App) Registry() *sandbox.Registry {
	return sandbox.NewRegistry(sandbox.Tools{
		Proot:  a.settings.Sandbox.Proot,
		Bindfs: a.settings.Sandbox.Bindfs,
	})
}

// Plan loads every build file of the workspace and plans it.
func (a *App) Plan(ctx context.Context) (*plan.Plan, error) {
	ctx = a.Context(ctx)

	ws, err := buildfile.NewLoader().Load(ctx, a.config.Workspace, a.settings.Repository)
	if err != nil {
		return nil, err
	}
	return plan.Build(ctx, ws, a.settings.Sandbox.Root)
}

// ParseLabels resolves command-line label arguments against the
// workspace root package.
func (a *App) ParseLabels(texts []string) ([]label.Label, error) {
	return label.Context{Repository: a.settings.Repository}.ResolveAll(texts)
}
