// Package clock provides the timestamp source used for sync bookkeeping.
//
// Sync cursors compare with strict greater-than, so two writes landing on
// the same instant would make the later one invisible to a client whose
// cursor already equals the earlier one. The Monotonic clock guarantees
// every call returns a strictly later instant, at microsecond resolution
// to match storage precision.
package clock

import (
	"sync"
	"time"
)

// Clock supplies timestamps for task modifications and sync responses.
type Clock interface {
	Now() time.Time
}

// Monotonic is a Clock that never returns the same instant twice. A call
// landing within the same microsecond as the previous one is advanced one
// microsecond past it.
type Monotonic struct {
	mu   sync.Mutex
	last time.Time
}

// NewMonotonic returns a Monotonic clock ready for use.
func NewMonotonic() *Monotonic {
	return &Monotonic{}
}

// Now returns the current UTC time truncated to microseconds, strictly
// later than every previous return value.
func (c *Monotonic) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}
