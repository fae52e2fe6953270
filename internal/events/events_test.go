package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mortar/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return r.err
}

func TestMulti(t *testing.T) {
	ok := &recorder{}
	broken := &recorder{err: errors.New("sink down")}
	m := Multi{broken, ok}

	ev := Event{Invocation: "inv", Kind: BuildStarted, Time: time.Now()}
	err := m.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Equal(t, []Event{ev}, ok.events, "a failing sink does not starve the others")

	assert.Error(t, m.Close())
	assert.True(t, ok.closed)
	assert.True(t, broken.closed)
}

func TestLogPublisher(t *testing.T) {
	ctx, logs := testutil.Context(t)

	require.NoError(t, LogPublisher{}.Publish(ctx, Event{Invocation: "inv", Kind: TargetFinished, Target: "//a:a", Status: "completed"}))
	require.NoError(t, LogPublisher{}.Publish(ctx, Event{Invocation: "inv", Kind: TargetFinished, Target: "//b:b", Status: "failed", Error: "exit 1"}))

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "level=DEBUG")
	assert.Contains(t, lines[0], "target=//a:a")
	assert.Contains(t, lines[1], "level=WARN")
	assert.Contains(t, lines[1], `error="exit 1"`)
}

func TestDialSocket_InvalidURL(t *testing.T) {
	_, err := DialSocket(context.Background(), SocketOptions{URL: "localhost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a scheme and a host")
}
