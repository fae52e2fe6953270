package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/mortar/internal/sandbox"
)

// RecordingRunner is a command runner for scheduler tests. It never starts
// a process. Each run is keyed by the last argument of the final command,
// which is the last word of the target's own command.
type RecordingRunner struct {
	// Sleep is how long every run takes.
	Sleep time.Duration
	// Fail maps a key to the error its run returns.
	Fail map[string]error

	mu      sync.Mutex
	records map[string]ExecutionRecord
	calls   map[string][]sandbox.CommandSpec

	running    atomic.Int32
	maxRunning atomic.Int32
}

// NewRecordingRunner creates a runner whose runs take sleep.
func NewRecordingRunner(sleep time.Duration) *RecordingRunner {
	return &RecordingRunner{
		Sleep:   sleep,
		Fail:    make(map[string]error),
		records: make(map[string]ExecutionRecord),
		calls:   make(map[string][]sandbox.CommandSpec),
	}
}

// Run records the call and sleeps, honoring ctx cancellation.
func (r *RecordingRunner) Run(ctx context.Context, specs []sandbox.CommandSpec) error {
	key := Key(specs)

	n := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		peak := r.maxRunning.Load()
		if n <= peak || r.maxRunning.CompareAndSwap(peak, n) {
			break
		}
	}

	start := time.Now()
	var err error
	select {
	case <-time.After(r.Sleep):
	case <-ctx.Done():
		err = ctx.Err()
	}
	end := time.Now()

	r.mu.Lock()
	r.records[key] = ExecutionRecord{Start: start, End: end}
	r.calls[key] = specs
	failure := r.Fail[key]
	r.mu.Unlock()

	if err != nil {
		return err
	}
	return failure
}

// Record returns the timing of the run for key.
func (r *RecordingRunner) Record(key string) (ExecutionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	return rec, ok
}

// Calls returns the command sequence the run for key received.
func (r *RecordingRunner) Calls(key string) []sandbox.CommandSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

// Ran returns the number of recorded runs.
func (r *RecordingRunner) Ran() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// MaxConcurrent returns the highest number of runs observed in flight at
// once.
func (r *RecordingRunner) MaxConcurrent() int {
	return int(r.maxRunning.Load())
}

// Key returns the key RecordingRunner files a command sequence under.
func Key(specs []sandbox.CommandSpec) string {
	if len(specs) == 0 {
		return ""
	}
	last := specs[len(specs)-1]
	if len(last.Args) == 0 {
		return last.Program
	}
	return last.Args[len(last.Args)-1]
}
