package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vk/mortar/internal/label"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up at the workspace root.
const FileName = "mortar.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the workspace settings.
type Config struct {
	// Repository is the name of the repository labels resolve against when
	// they carry no '@repo' prefix.
	Repository string          `yaml:"repository" validate:"omitempty,repository"`
	Sandbox    SandboxConfig   `yaml:"sandbox"`
	Workers    int             `yaml:"workers" validate:"min=1,max=256"`
	Events     EventsConfig    `yaml:"events"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
}

// SandboxConfig controls where environments are materialized and which
// programs build them.
type SandboxConfig struct {
	Root   string `yaml:"root" validate:"required"`
	Proot  string `yaml:"proot" validate:"required"`
	Bindfs string `yaml:"bindfs" validate:"required"`
}

// EventsConfig configures the socket.io build-event sink.
type EventsConfig struct {
	URL       string `yaml:"url" validate:"omitempty,url"`
	Namespace string `yaml:"namespace" validate:"omitempty,startswith=/"`
}

// TelemetryConfig selects the trace exporter.
type TelemetryConfig struct {
	Trace string `yaml:"trace" validate:"oneof=none stdout"`
}

// Default returns the settings used when mortar.yaml is absent.
func Default() Config {
	return Config{
		Sandbox: SandboxConfig{
			Root:   filepath.Join(os.TempDir(), "mortar"),
			Proot:  "proot",
			Bindfs: "bindfs",
		},
		Workers:   10,
		Events:    EventsConfig{Namespace: "/"},
		Telemetry: TelemetryConfig{Trace: "none"},
	}
}

// Load reads FileName from the workspace root. A missing file yields
// Default.
func Load(workspace string) (*Config, error) {
	path := filepath.Join(workspace, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML settings on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("repository", func(fl validator.FieldLevel) bool {
		return label.ValidRepository(fl.Field().String())
	})
	return v
}

// Validate checks every field constraint and reports all violations at
// once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
