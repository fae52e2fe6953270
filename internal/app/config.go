package app

import (
	"errors"
	"fmt"
)

// Config holds the command-line settings of an App. Zero values leave the
// workspace settings file in charge.
type Config struct {
	Workspace string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int
	// Repository overrides the repository named in mortar.yaml.
	Repository string
	// Version is reported in trace resources.
	Version string
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Workspace == "" {
		return nil, errors.New("workspace is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "", "auto", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'auto', 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid workers %d: must not be negative", cfg.Workers)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
