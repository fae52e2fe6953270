package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	deps, err := g.Deps("a")
	require.NoError(t, err)
	assert.Empty(t, deps)

	g.AddNode("b", "a")
	assert.Equal(t, 2, g.Len())
	deps, err = g.Deps("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, deps)

	// Re-adding replaces the dependency list instead of merging it.
	g.AddNode("b", "c")
	deps, err = g.Deps("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, deps)
}

func TestAddDep(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddDep("b", "a"))
		require.NoError(t, g.AddDep("b", "a")) // duplicates are kept

		deps, err := g.Deps("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a"}, deps)
	})

	t.Run("unknown dependent fails", func(t *testing.T) {
		g := New()
		g.AddNode("a")

		err := g.AddDep("dne", "a")
		assert.ErrorIs(t, err, ErrNodeNotFound)
		assert.ErrorContains(t, err, "dne")
	})

	t.Run("forward reference is accepted and validated later", func(t *testing.T) {
		g := New()
		g.AddNode("a")

		require.NoError(t, g.AddDep("a", "later"))
		err := g.Validate()
		assert.ErrorIs(t, err, ErrNodeNotFound)
		assert.ErrorContains(t, err, `"later" (dependency of "a")`)

		g.AddNode("later")
		assert.NoError(t, g.Validate())
	})
}

func TestDeps_ReturnsCopy(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b", "a")

	deps, err := g.Deps("b")
	require.NoError(t, err)
	deps[0] = "mutated"

	again, err := g.Deps("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again)

	_, err = g.Deps("dne")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestReverseDeps(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("c", "a")
	g.AddNode("b", "a")
	g.AddNode("d", "b", "c")

	assert.Equal(t, []string{"b", "c"}, g.ReverseDeps("a"))
	assert.Equal(t, []string{"d"}, g.ReverseDeps("b"))
	assert.Empty(t, g.ReverseDeps("d"))
	assert.Empty(t, g.ReverseDeps("dne"))
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b", "a")
		g.AddNode("c", "a", "b") // transitive edge
		g.AddNode("d", "c")
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("self dependency is a cycle", func(t *testing.T) {
		g := New()
		g.AddNode("a", "a")

		err := g.DetectCycles()
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"a", "a"}, cycleErr.Path)
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a", "d")
		g.AddNode("b", "a")
		g.AddNode("c", "b")
		g.AddNode("d", "c")

		err := g.DetectCycles()
		assert.ErrorIs(t, err, ErrCycleDetected)
		assert.ErrorContains(t, err, "a -> d -> c -> b -> a")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b", "a")
		g.AddNode("x")
		g.AddNode("y", "x", "z")
		g.AddNode("z", "y")

		assert.ErrorIs(t, g.DetectCycles(), ErrCycleDetected)
	})
}

func TestClosure(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b", "a")
	g.AddNode("c")
	g.AddNode("d", "b")

	closure, err := g.Closure("d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, closure)

	_, err = g.Closure("dne")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSubgraph(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b", "a")
	g.AddNode("c", "b", "x")

	sub := g.Subgraph([]string{"b", "c"})
	assert.Equal(t, []string{"b", "c"}, sub.Nodes())

	deps, err := sub.Deps("b")
	require.NoError(t, err)
	assert.Empty(t, deps)

	deps, err = sub.Deps("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, deps)
}
