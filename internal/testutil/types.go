package testutil

import "time"

// ExecutionRecord holds the start and end times of one recorded run.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Before reports whether r finished before other started.
func (r ExecutionRecord) Before(other ExecutionRecord) bool {
	return !r.End.After(other.Start)
}
