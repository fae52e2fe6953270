package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/sandbox"
)

// maxStderr bounds the stderr tail kept in a CommandError.
const maxStderr = 4096

// CommandError reports a command that exited unsuccessfully.
type CommandError struct {
	Command sandbox.CommandSpec
	// Index is the position of the command within its sequence.
	Index    int
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %d (%s) failed", e.Index, e.Command.Program)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Local runs commands as child processes of the current process.
type Local struct {
	// Stdout receives the standard output of every command. Nil discards
	// it.
	Stdout io.Writer
	// Env is the environment of every command. Nil inherits the current
	// process environment.
	Env []string
	// WaitDelay bounds how long a cancelled command may take to exit
	// before its pipes are closed.
	WaitDelay time.Duration
}

// NewLocal creates a Local runner writing command output to stdout.
func NewLocal(stdout io.Writer) *Local {
	return &Local{Stdout: stdout, WaitDelay: 5 * time.Second}
}

// Prepare implements Preparer.
func (l *Local) Prepare(ctx context.Context, dirs []string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Run implements Runner.
func (l *Local) Run(ctx context.Context, specs []sandbox.CommandSpec) error {
	logger := ctxlog.FromContext(ctx)

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Running command.", "index", i, "command", spec.String())

		cmd := exec.CommandContext(ctx, spec.Program, spec.Args...)
		cmd.Env = l.Env
		cmd.WaitDelay = l.WaitDelay
		if l.Stdout != nil {
			cmd.Stdout = l.Stdout
		}
		var stderr bytes.Buffer
		cmd.Stderr = &limitedWriter{w: &stderr, n: maxStderr}

		start := time.Now()
		err := cmd.Run()
		if err != nil {
			cmdErr := &CommandError{Command: spec, Index: i, ExitCode: -1, Stderr: stderr.String(), Err: err}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				cmdErr.ExitCode = exitErr.ExitCode()
			}
			if ctx.Err() != nil {
				cmdErr.Err = ctx.Err()
			}
			return cmdErr
		}
		logger.Debug("Command finished.", "index", i, "duration", time.Since(start))
	}
	return nil
}

// limitedWriter keeps the first n bytes and drops the rest while still
// reporting full writes, so the child never sees a short write.
type limitedWriter struct {
	w io.Writer
	n int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.n > 0 {
		chunk := p
		if len(chunk) > lw.n {
			chunk = chunk[:lw.n]
		}
		written, err := lw.w.Write(chunk)
		lw.n -= written
		if err != nil {
			return written, err
		}
	}
	return len(p), nil
}
