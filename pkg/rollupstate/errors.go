package rollupstate

import "errors"

// Error classification codes.
//
// Implementations MAY wrap these errors with additional context.
// Tests and callers MUST classify errors using errors.Is.
var (
	// ErrUnknownShard indicates an operation targeted a shard outside the
	// configured universe (see ShardStateManager).
	ErrUnknownShard = errors.New("rollupstate: unknown shard")

	// ErrUnknownSlot indicates a lookup for a slot that has never been
	// touched by ingest, read-repair, or coarser-slot propagation.
	ErrUnknownSlot = errors.New("rollupstate: unknown slot")

	// ErrNoCoarserGranularity names the top-of-ladder condition in this
	// package. Coarser-slot propagation does not return it: when
	// Granularity.Coarser reports granularity.ErrNoCoarserGranularity, the
	// walk stops and returns nil, since that is the normal stopping
	// condition, not a failure.
	ErrNoCoarserGranularity = errors.New("rollupstate: no coarser granularity")
)
