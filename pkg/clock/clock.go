// Package clock abstracts wall-clock time so that rollupstate tests can
// drive age-based slot selection and the read/write merge rules without
// sleeping. See ManualClock, grounded on the same pattern the rest of
// this module's teacher uses for its own deterministic test clock.
package clock

import "time"

// Clock returns the current time as Unix milliseconds.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

// NowMillis implements Clock.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}
