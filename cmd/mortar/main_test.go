package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mortar/internal/cli"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--help"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "resolve")
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, []string{"--version"}))
	assert.Contains(t, out.String(), version)
}

func TestRun_InvalidBuildFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BUILD.hcl"), []byte(`target "a" {`), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"layers", "-w", dir, "--log-level", "error"})
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, cli.ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, "failed to parse build file")
}
