package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrBuildFailed is returned by Run when at least one target failed.
var ErrBuildFailed = errors.New("build failed")

// Status is the outcome of one target.
type Status int

const (
	Completed Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of one target in a run.
type Result struct {
	Target   string
	Layer    int
	Status   Status
	Err      error
	Duration time.Duration
}

// Report collects the results of a run in layer order, and by target id
// within a layer.
type Report struct {
	Invocation string
	Results    []Result
	Duration   time.Duration
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Result returns the result for a target id.
func (r *Report) Result(id string) (Result, bool) {
	for _, res := range r.Results {
		if res.Target == id {
			return res, true
		}
	}
	return Result{}, false
}

// Err joins the errors of all failed targets under ErrBuildFailed, or
// returns nil when nothing failed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Status == Failed {
			errs = append(errs, fmt.Errorf("%s: %w", res.Target, res.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBuildFailed, errors.Join(errs...))
}
