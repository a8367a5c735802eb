package client

import (
	"sync"
	"time"
)

// dayFormat keys the counter by calendar date.
const dayFormat = "2006-01-02"

// Counter tracks outbound API calls per calendar day. It exists for quota
// observability only, not enforcement, and is process-local: counts are not
// persisted across restarts.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
	now    func() time.Time
}

// NewCounter creates an empty daily call counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int), now: time.Now}
}

// Inc records one outbound call against today's date and returns the new
// count for the day.
func (c *Counter) Inc() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	day := c.now().Format(dayFormat)
	c.counts[day]++
	return c.counts[day]
}

// Today returns the number of calls recorded for the current date.
func (c *Counter) Today() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[c.now().Format(dayFormat)]
}

// Snapshot returns a copy of all per-day counts.
func (c *Counter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
