package clock

import "sync"

// ManualClock is a deterministic Clock for tests: time only moves when
// Advance or Set is called.
type ManualClock struct {
	mu      sync.Mutex
	current int64
}

// NewManualClock returns a ManualClock starting at startMillis.
func NewManualClock(startMillis int64) *ManualClock {
	return &ManualClock{current: startMillis}
}

// NowMillis implements Clock.
func (c *ManualClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Advance moves the clock forward by deltaMillis and returns the new
// current time. deltaMillis may be negative.
func (c *ManualClock) Advance(deltaMillis int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current += deltaMillis

	return c.current
}

// Set pins the clock to an absolute time.
func (c *ManualClock) Set(millis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = millis
}
