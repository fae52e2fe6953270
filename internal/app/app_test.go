package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/plan"
	"github.com/vk/mortar/internal/scheduler"
	"github.com/vk/mortar/internal/testutil"
)

var workspaceFiles = map[string]string{
	"mortar.yaml": `
repository: main
workers: 2
sandbox:
  root: /tmp/mortar-test
`,
	"lib/BUILD.hcl": `
target "lib" {
  inputs  = ["lib.c"]
  outputs = ["lib.o"]
  command = "cc -c /lib/lib.c -o /out/lib.o"
}
`,
	"app/BUILD.hcl": `
target "app" {
  inputs  = ["main.c", "//lib:lib.o"]
  command = ["cc", "-o", "/out/app", "/app/main.c", "/lib/lib.o"]
}
`,
}

func newTestApp(t *testing.T, files map[string]string) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	root := testutil.WriteWorkspace(t, files)
	cfg, err := NewConfig(Config{Workspace: root, LogLevel: "debug", LogFormat: "text"})
	require.NoError(t, err)

	var out bytes.Buffer
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(&out, logs, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("MORTAR_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, &out, logs
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "minimal", cfg: Config{Workspace: "."}},
		{name: "missing workspace", cfg: Config{}, wantErr: "workspace is a required"},
		{name: "bad format", cfg: Config{Workspace: ".", LogFormat: "yaml"}, wantErr: "invalid log-format"},
		{name: "bad level", cfg: Config{Workspace: ".", LogLevel: "trace"}, wantErr: "invalid log-level"},
		{name: "negative workers", cfg: Config{Workspace: ".", Workers: -1}, wantErr: "invalid workers"},
		{name: "port out of range", cfg: Config{Workspace: ".", HealthcheckPort: 70000}, wantErr: "invalid healthcheck-port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewApp_Overrides(t *testing.T) {
	root := testutil.WriteWorkspace(t, workspaceFiles)

	a, err := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, &Config{Workspace: root, Workers: 7, Repository: "other"})
	require.NoError(t, err)
	assert.Equal(t, 7, a.Settings().Workers)
	assert.Equal(t, "other", a.Settings().Repository)
	assert.Equal(t, "/tmp/mortar-test", a.Settings().Sandbox.Root)

	_, err = NewApp(&bytes.Buffer{}, &bytes.Buffer{}, &Config{Workspace: root, Workers: 1000})
	assert.Error(t, err)
}

func TestLayers(t *testing.T) {
	a, out, _ := newTestApp(t, workspaceFiles)

	require.NoError(t, a.Layers(context.Background(), nil))
	assert.Equal(t, "layer 0: @main//lib:lib\nlayer 1: @main//app:app\n", out.String())

	out.Reset()
	require.NoError(t, a.Layers(context.Background(), []string{"//lib"}))
	assert.Equal(t, "layer 0: @main//lib:lib\n", out.String())
}

func TestSandbox(t *testing.T) {
	a, out, _ := newTestApp(t, workspaceFiles)

	require.NoError(t, a.Sandbox(context.Background(), "//app"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "bindfs --no-allow-other -r "))
	assert.True(t, strings.HasSuffix(lines[0], "/tmp/mortar-test/app/app/app/main.c"))
	assert.Contains(t, lines[1], filepath.Join(plan.OutputDirName, "lib", "lib", "lib.o"))
	assert.True(t, strings.HasPrefix(lines[2], "proot -r /tmp/mortar-test/app/app -b "))
	assert.True(t, strings.HasSuffix(lines[2], "cc -o /out/app /app/main.c /lib/lib.o"))

	err := a.Sandbox(context.Background(), "//nope")
	assert.ErrorIs(t, err, plan.ErrUnknownTarget)

	err = a.Sandbox(context.Background(), "//a:b:c")
	assert.ErrorIs(t, err, label.ErrInvalidLabel)
}

func TestBuild_DryRun(t *testing.T) {
	a, out, logs := newTestApp(t, workspaceFiles)

	report, err := a.Build(context.Background(), BuildOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(scheduler.Completed))

	printed := out.String()
	libAt := strings.Index(printed, "cc -c /lib/lib.c -o /out/lib.o")
	appAt := strings.Index(printed, "cc -o /out/app")
	require.GreaterOrEqual(t, libAt, 0)
	require.GreaterOrEqual(t, appAt, 0)
	assert.Less(t, libAt, appAt, "lib is printed before the target that consumes it")
	assert.Contains(t, printed, "mkdir -p /tmp/mortar-test/lib/lib")

	assert.Contains(t, logs.String(), "Build finished.")
	assert.Contains(t, logs.String(), "result=succeeded")
}

func TestBuild_PlanErrors(t *testing.T) {
	a, _, _ := newTestApp(t, map[string]string{
		"BUILD.hcl": `target "a" { deps = ["//missing"] }`,
	})

	_, err := a.Build(context.Background(), BuildOptions{DryRun: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrUnknownTarget)
	assert.Contains(t, err.Error(), "failed to plan build")
}

func TestBuild_Empty(t *testing.T) {
	a, _, logs := newTestApp(t, map[string]string{"README": "nothing here"})

	report, err := a.Build(context.Background(), BuildOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Contains(t, logs.String(), "No targets found")
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	a, _, _ := newTestApp(t, workspaceFiles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan *scheduler.Report, 4)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, WatchOptions{
			BuildOptions: BuildOptions{DryRun: true},
			Debounce:     20 * time.Millisecond,
			OnBuild:      func(r *scheduler.Report, _ error) { builds <- r },
		})
	}()

	select {
	case r := <-builds:
		assert.Len(t, r.Results, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("initial build did not run")
	}

	path := filepath.Join(a.config.Workspace, "tools", "BUILD.hcl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`target "tools" { command = "true" }`), 0o644))

	select {
	case r := <-builds:
		assert.Len(t, r.Results, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a rebuild")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger("warn", "json", &buf).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger("info", "auto", &buf).Info("shown")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "auto picks json for a non-terminal writer")

	buf.Reset()
	newLogger("debug", "text", &buf).Debug("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
