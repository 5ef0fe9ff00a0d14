package granularity

import "errors"

// Error classification codes.
//
// Implementations MAY wrap these errors with additional context.
// Tests and callers MUST classify errors using errors.Is.
var (
	// ErrNoCoarserGranularity is returned once a walk up the ladder runs
	// past the coarsest configured tier.
	ErrNoCoarserGranularity = errors.New("granularity: no coarser granularity")

	// ErrEmptyLadder indicates a Ladder was built with zero tiers.
	ErrEmptyLadder = errors.New("granularity: ladder must have at least one tier")

	// ErrLadderNotOrdered indicates two tiers were not strictly increasing
	// by slot duration, so parent/child slot arithmetic would be ambiguous.
	ErrLadderNotOrdered = errors.New("granularity: tiers must be strictly increasing by slot duration")

	// ErrUnknownGranularity indicates a lookup by name found no matching tier.
	ErrUnknownGranularity = errors.New("granularity: unknown name")
)
