package sandbox

import (
	"strconv"
	"sync/atomic"
)

// ID identifies an Environment within the current process. IDs are handed
// out from a process-wide counter: they are unique for the lifetime of the
// process, are never reused, and carry no meaning outside it. They are not
// persisted and not unique across processes.
type ID uint64

var lastID atomic.Uint64

// NewID returns a fresh ID. The zero ID is never returned.
func NewID() ID {
	return ID(lastID.Add(1))
}

func (id ID) String() string {
	return "env-" + strconv.FormatUint(uint64(id), 10)
}
