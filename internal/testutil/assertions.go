package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertRanBefore checks that the run for first finished before the run for
// second started.
func AssertRanBefore(t *testing.T, r *RecordingRunner, first, second string) {
	t.Helper()

	a, ok := r.Record(first)
	require.True(t, ok, "expected %q to have run", first)
	b, ok := r.Record(second)
	require.True(t, ok, "expected %q to have run", second)

	require.True(t, a.Before(b), "expected %q to finish before %q started", first, second)
}

// AssertNotRan checks that no run was recorded for key.
func AssertNotRan(t *testing.T, r *RecordingRunner, key string) {
	t.Helper()

	_, ok := r.Record(key)
	require.False(t, ok, "expected %q not to have run", key)
}
