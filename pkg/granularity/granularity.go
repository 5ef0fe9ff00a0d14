package granularity

import "fmt"

// Granularity is one resolution tier of the rollup ladder.
//
// Implementations are expected to be comparable by Name, not by Go
// identity: two Granularity values obtained from the same Registry for
// the same tier are interchangeable.
type Granularity interface {
	// Name is the stable identifier used in locator keys, config, and
	// telemetry labels (e.g. "full", "5m", "1440m").
	Name() string

	// Rank is the tier's position in the ladder, 0 at the finest tier,
	// increasing toward coarser tiers.
	Rank() int

	// NumSlots is the number of distinct slot ids this tier cycles
	// through before wrapping around.
	NumSlots() int

	// Coarser returns the next tier up the ladder.
	//
	// Possible errors: [ErrNoCoarserGranularity]
	Coarser() (Granularity, error)

	// ParentSlot maps a slot at this granularity to the slot it rolls
	// into at Coarser(). Callers must not call ParentSlot on the
	// coarsest tier.
	ParentSlot(childSlot int) int

	// ChildrenKeys returns the locator keys of every finer-grained slot
	// that rolls up into (slot, shard) at this granularity. The finest
	// tier has no children and returns nil.
	ChildrenKeys(slot, shard int) []string

	// LocatorKey returns the stable external identifier for (slot, shard)
	// at this granularity, in the form "<name>:<shard>:<slot>".
	LocatorKey(slot, shard int) string
}

// Registry exposes every tier of a configured ladder, finest first.
type Registry interface {
	Granularities() []Granularity

	// ByName looks up a tier by its stable name.
	//
	// Possible errors: [ErrUnknownGranularity]
	ByName(name string) (Granularity, error)
}

func locatorKey(name string, shard, slot int) string {
	return fmt.Sprintf("%s:%d:%d", name, shard, slot)
}
