package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/vk/mortar/internal/config"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/scheduler"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// withUsage turns argument validation failures into usage errors.
func withUsage(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// toExitError maps a command failure onto an exit code. Bad input is a
// usage error; everything else, failed builds included, is a failure.
func toExitError(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	code := ExitFailure
	switch {
	case errors.Is(err, label.ErrInvalidLabel),
		errors.Is(err, label.ErrMissingTarget),
		errors.Is(err, config.ErrInvalid):
		code = ExitUsage
	case errors.Is(err, scheduler.ErrBuildFailed):
		code = ExitFailure
	}
	return &ExitError{Code: code, Message: err.Error()}
}
