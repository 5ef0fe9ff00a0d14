package persistence

import "errors"

// Error classification codes.
var (
	// ErrInvalidState indicates a snapshot file held a state string this
	// package does not recognize.
	ErrInvalidState = errors.New("persistence: invalid state")

	// ErrUnknownGranularity indicates a snapshot file referenced a
	// granularity name the configured registry does not have.
	ErrUnknownGranularity = errors.New("persistence: unknown granularity in snapshot")
)
