package plan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mortar/internal/buildfile"
	"github.com/vk/mortar/internal/dag"
	"github.com/vk/mortar/internal/label"
	"github.com/vk/mortar/internal/sandbox"
	"github.com/vk/mortar/internal/target"
)

func mk(text string, inputs, outputs, deps []string, command ...string) *target.Target {
	self := label.MustResolve(text, "r", "")
	ctx := label.Context{Repository: "r", Package: self.Package}
	resolve := func(texts []string) []label.Label {
		ls, err := ctx.ResolveAll(texts)
		if err != nil {
			panic(err)
		}
		return ls
	}
	t := target.New(resolve(inputs), resolve(outputs))
	t.Label = self
	t.Deps = resolve(deps)
	t.Command = command
	return t
}

func workspace(t *testing.T, targets ...*target.Target) *buildfile.Workspace {
	t.Helper()
	ws := buildfile.NewWorkspace("/ws", "r")
	for _, tgt := range targets {
		require.NoError(t, ws.Add(tgt))
	}
	return ws
}

func TestBuild_Layers(t *testing.T) {
	ws := workspace(t,
		mk("//gen:gen", nil, []string{"gen.h"}, nil, "gen"),
		mk("//lib:lib", []string{"lib.c", "//gen:gen.h"}, []string{"lib.o"}, nil, "cc"),
		mk("//tool:tool", []string{"//gen"}, []string{"tool"}, nil, "cc"),
		mk("//app:app", []string{"main.c", "//lib:lib.o"}, []string{"app"}, []string{"//tool"}, "ld"),
		mk("//docs:docs", []string{"index.md"}, nil, nil, "mkdocs"),
	)

	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"@r//docs:docs", "@r//gen:gen"},
		{"@r//lib:lib", "@r//tool:tool"},
		{"@r//app:app"},
	}, p.Layers)

	deps, err := p.Graph.Deps("@r//app:app")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"@r//tool:tool", "@r//lib:lib"}, deps)
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		targets []*target.Target
		wantIs  error
	}{
		{
			name: "unknown dep",
			targets: []*target.Target{
				mk("//a:a", nil, nil, []string{"//missing"}),
			},
			wantIs: ErrUnknownTarget,
		},
		{
			name: "conflicting outputs",
			targets: []*target.Target{
				mk("//a:x", nil, []string{"out.txt"}, nil),
				mk("//a:y", nil, []string{"out.txt"}, nil),
			},
			wantIs: ErrConflictingOutput,
		},
		{
			name: "cycle through outputs",
			targets: []*target.Target{
				mk("//a:x", []string{"y.out"}, []string{"x.out"}, nil),
				mk("//a:y", []string{"x.out"}, []string{"y.out"}, nil),
			},
			wantIs: dag.ErrCycleDetected,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(context.Background(), workspace(t, tc.targets...), "/sb")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantIs), "got %v", err)
		})
	}
}

func TestSelect(t *testing.T) {
	ws := workspace(t,
		mk("//a:a", nil, []string{"a.out"}, nil),
		mk("//b:b", []string{"//a:a.out"}, nil, nil),
		mk("//c:c", nil, nil, []string{"//b"}),
		mk("//z:z", nil, nil, nil),
	)
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	sub, err := p.Select(label.MustResolve("//c", "r", ""))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"@r//a:a"}, {"@r//b:b"}, {"@r//c:c"}}, sub.Layers)
	assert.Len(t, sub.Targets, 3)
	assert.False(t, sub.Graph.Has("@r//z:z"))

	all, err := p.Select()
	require.NoError(t, err)
	assert.Same(t, p, all)

	_, err = p.Select(label.MustResolve("//nope", "r", ""))
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestEnvironment(t *testing.T) {
	ws := workspace(t,
		mk("//gen:gen", nil, []string{"gen.h"}, nil, "gen"),
		mk("//tool:tool", nil, []string{"tool.bin"}, nil, "mk"),
		mk("//lib:lib",
			[]string{"lib.c", "//gen:gen.h", "//tool", "!/usr/include:stdio.h"},
			[]string{"lib.o"}, nil,
			"cc", "-c", "/lib/lib.c", "-o", "/out/lib.o"),
	)
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	lib, ok := p.Target("@r//lib:lib")
	require.True(t, ok)

	mappings, err := p.Mappings(lib)
	require.NoError(t, err)
	assert.Equal(t, []sandbox.Mapping{
		sandbox.FromHost("/ws/lib/lib.c", "lib/lib.c", true),
		sandbox.FromHost(filepath.Join("/ws", OutputDirName, "gen", "gen", "gen.h"), "gen/gen.h", true),
		sandbox.FromHost(filepath.Join("/ws", OutputDirName, "tool", "tool", "tool.bin"), "tool/tool.bin", true),
		sandbox.FromHost("/usr/include/stdio.h", "usr/include/stdio.h", true),
		sandbox.FromHost(filepath.Join("/ws", OutputDirName, "lib", "lib"), OutputMount, false),
	}, mappings)

	reg := sandbox.NewRegistry(sandbox.Tools{})
	env, cmds, err := p.Commands(reg, lib)
	require.NoError(t, err)
	assert.Equal(t, "/sb/lib/lib", env.Root)
	require.Len(t, cmds, 5)
	for _, setup := range cmds[:4] {
		assert.Equal(t, "bindfs", setup.Program)
	}
	assert.Equal(t, sandbox.CommandSpec{
		Program: "proot",
		Args: []string{
			"-r", "/sb/lib/lib",
			"-b", "/ws/.mortar-out/lib/lib:/out",
			"cc", "-c", "/lib/lib.c", "-o", "/out/lib.o",
		},
	}, cmds[4])

	root, ok := reg.RootOf(env.ID)
	require.True(t, ok)
	assert.Equal(t, env.Root, root)
}

func TestEnvironment_OutputsAreIsolated(t *testing.T) {
	ws := workspace(t,
		mk("//p:a", nil, []string{"a.out"}, nil, "touch", "/out/a.out"),
		mk("//p:b", nil, []string{"secret.out"}, nil, "touch", "/out/secret.out"),
		mk("//q:c", []string{"//p:a", "//p:a.out"}, nil, nil, "cat", "/p/a.out"),
	)
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)
	assert.Equal(t, []string{"@r//p:a", "@r//p:b"}, p.Layers[0])

	a, _ := p.Target("@r//p:a")
	b, _ := p.Target("@r//p:b")
	assert.NotEqual(t, p.OutputDir(a), p.OutputDir(b))

	reg := sandbox.NewRegistry(sandbox.Tools{})
	writable := func(tgt *target.Target) string {
		_, cmds, err := p.Commands(reg, tgt)
		require.NoError(t, err)
		args := cmds[len(cmds)-1].Args
		return args[3]
	}
	assert.Equal(t, "/ws/.mortar-out/p/a:/out", writable(a))
	assert.Equal(t, "/ws/.mortar-out/p/b:/out", writable(b))

	c, _ := p.Target("@r//q:c")
	mappings, err := p.Mappings(c)
	require.NoError(t, err)
	assert.Equal(t, []sandbox.Mapping{
		sandbox.FromHost("/ws/.mortar-out/p/a/a.out", "p/a.out", true),
		sandbox.FromHost("/ws/.mortar-out/q/c", OutputMount, false),
	}, mappings, "naming a target mounts only its declared outputs, once")
}

func TestEnvironment_MountOutsideRootRejected(t *testing.T) {
	ws := workspace(t, mk("//app:app", []string{"!/../../etc:passwd"}, nil, nil, "cat"))
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	reg := sandbox.NewRegistry(sandbox.Tools{})
	_, _, err = p.Commands(reg, ws.Targets[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, sandbox.ErrEscapesRoot)
	assert.Zero(t, reg.Len(), "a rejected environment is released")
}

func TestHostPath_TargetIsNotAFile(t *testing.T) {
	ws := workspace(t, mk("//p:a", nil, []string{"a.out"}, nil, "true"))
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	_, err = p.HostPath(label.MustResolve("//p:a", "r", ""))
	assert.ErrorIs(t, err, ErrNotAFile)

	host, err := p.HostPath(label.MustResolve("//p:src.c", "r", ""))
	require.NoError(t, err)
	assert.Equal(t, "/ws/p/src.c", host)
}

func TestEnvironment_GroupTargetHasNoCommands(t *testing.T) {
	ws := workspace(t, mk("//:all", nil, nil, nil))
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	env, cmds, err := p.Commands(sandbox.NewRegistry(sandbox.Tools{}), ws.Targets[0])
	require.NoError(t, err)
	assert.NotNil(t, env)
	assert.Nil(t, cmds)
}

func TestEnvironment_ExternalInput(t *testing.T) {
	ws := workspace(t, mk("//a:a", []string{"@other//zlib:z"}, nil, nil, "true"))
	p, err := Build(context.Background(), ws, "/sb")
	require.NoError(t, err)

	_, err = p.Mappings(ws.Targets[0])
	assert.ErrorIs(t, err, ErrExternalLabel)
}
