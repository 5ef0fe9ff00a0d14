package rollupstate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shardstate/rollupd/internal/telemetry"
	"github.com/shardstate/rollupd/pkg/clock"
	"github.com/shardstate/rollupd/pkg/granularity"
)

// ShardStateManager is the entry point for the whole tracker. It builds
// one SlotStateManager per (shard, granularity) pair for every shard in
// the configured universe at construction time, so the manager map
// itself never changes afterward and needs no lock to read. The only
// thing that mutates after construction is the managed-shard set, which
// tracks which shards this process is currently responsible for polling
// and rolling up — membership in the universe and membership in the
// managed set are different questions.
type ShardStateManager struct {
	registry  granularity.Registry
	clock     clock.Clock
	telemetry telemetry.Sink

	managers map[int]map[string]*SlotStateManager // shard -> granularity name -> manager
	managed  sync.Map                             // int -> struct{}
}

// NewShardStateManager builds a ShardStateManager covering every shard
// in universe at every granularity in registry. Shards outside universe
// are rejected with ErrUnknownShard by Ingest, UpdateSlotOnRead,
// GetDirtySlotsToPersist, SetAllCoarserSlotsDirtyForSlot, Snapshot, and
// ManagedAdd, and the lookups GetSlotStateManager and GetUpdateStamp
// report false for them. Because ManagedAdd rejects them, such a shard
// never enters the managed set: managing a shard this process was never
// configured to track is a configuration error, not a state worth
// tolerating.
func NewShardStateManager(universe []int, registry granularity.Registry, clk clock.Clock, sink telemetry.Sink) *ShardStateManager {
	grans := registry.Granularities()

	managers := make(map[int]map[string]*SlotStateManager, len(universe))
	for _, shard := range universe {
		perGran := make(map[string]*SlotStateManager, len(grans))
		for _, g := range grans {
			perGran[g.Name()] = newSlotStateManager(shard, g, clk, sink)
		}

		managers[shard] = perGran
	}

	return &ShardStateManager{registry: registry, clock: clk, telemetry: sink, managers: managers}
}

// GetSlotStateManager returns the manager for (shard, g).
func (m *ShardStateManager) GetSlotStateManager(shard int, g granularity.Granularity) (*SlotStateManager, bool) {
	perGran, ok := m.managers[shard]
	if !ok {
		return nil, false
	}

	sm, ok := perGran[g.Name()]

	return sm, ok
}

// GetUpdateStamp looks up a single slot's stamp across the full (shard,
// granularity, slot) path.
func (m *ShardStateManager) GetUpdateStamp(shard int, g granularity.Granularity, slot int) (*UpdateStamp, bool) {
	sm, ok := m.GetSlotStateManager(shard, g)
	if !ok {
		return nil, false
	}

	return sm.Lookup(slot)
}

// Ingest records an ingest write at (shard, g, slot) and nowMillis.
//
// Possible errors: [ErrUnknownShard]
func (m *ShardStateManager) Ingest(shard int, g granularity.Granularity, slot int, nowMillis int64) error {
	sm, ok := m.GetSlotStateManager(shard, g)
	if !ok {
		return fmt.Errorf("%w: shard %d", ErrUnknownShard, shard)
	}

	sm.CreateOrUpdateForSlotAndMillisecond(slot, nowMillis)

	return nil
}

// UpdateSlotOnRead fans a read-repair observation out to the matching
// SlotStateManager.
//
// Possible errors: [ErrUnknownShard]
func (m *ShardStateManager) UpdateSlotOnRead(shard int, s SlotState) error {
	sm, ok := m.GetSlotStateManager(shard, s.Granularity)
	if !ok {
		return fmt.Errorf("%w: shard %d granularity %s", ErrUnknownShard, shard, s.Granularity.Name())
	}

	sm.UpdateSlotOnRead(s.Slot, s.Timestamp, s.State)

	return nil
}

// GetDirtySlotsToPersist drains every dirty slot across all
// granularities for shard in one pass, returning an empty map if nothing
// was dirty. Granularities with no dirty slots are omitted from the result
// rather than included as empty maps.
//
// Possible errors: [ErrUnknownShard]
func (m *ShardStateManager) GetDirtySlotsToPersist(shard int) (map[string]DirtySlots, error) {
	perGran, ok := m.managers[shard]
	if !ok {
		return nil, fmt.Errorf("%w: shard %d", ErrUnknownShard, shard)
	}

	out := make(map[string]DirtySlots, len(perGran))

	for name, sm := range perGran {
		dirty := sm.GetDirtySlotStampsAndMarkClean()
		if len(dirty) > 0 {
			out[name] = dirty
		}
	}

	return out, nil
}

// SetAllCoarserSlotsDirtyForSlot walks from (g, slot) up to the coarsest
// granularity, marking the corresponding parent slot Active and dirty
// at every tier it was not already active. The walk always continues to
// the top of the ladder, even past a parent that was already Active:
// only the mutation is skipped at that tier, since an already-Active
// parent's own ingest path keeps it fresh, but coarser tiers above it
// still need their own propagation check.
//
// Possible errors: [ErrUnknownShard]
func (m *ShardStateManager) SetAllCoarserSlotsDirtyForSlot(shard int, g granularity.Granularity, slot int) error {
	if _, ok := m.managers[shard]; !ok {
		return fmt.Errorf("%w: shard %d", ErrUnknownShard, shard)
	}

	curGranularity := g
	curSlot := slot

	for {
		coarser, err := curGranularity.Coarser()
		if err != nil {
			if errors.Is(err, granularity.ErrNoCoarserGranularity) {
				return nil
			}

			return err
		}

		parentSlot := curGranularity.ParentSlot(curSlot)

		sm, ok := m.GetSlotStateManager(shard, coarser)
		if !ok {
			return fmt.Errorf("%w: shard %d granularity %s", ErrUnknownShard, shard, coarser.Name())
		}

		now := m.clock.NowMillis()

		stamp, existed := sm.getOrCreateForPropagation(parentSlot, now)
		if existed && stamp.State() != StateActive {
			m.telemetry.ParentBeforeChildTick(shard, coarser)
			stamp.SetTimestamp(now)
			stamp.SetState(StateActive)
			stamp.SetDirty(true)
		}
		// If the parent already existed and was Active, it is left alone;
		// its own ingest path keeps it fresh. Either way, keep walking up.

		curGranularity = coarser
		curSlot = parentSlot
	}
}

// GetChildAndSelfKeysForSlot returns the locator keys of every
// finer-grained slot that rolls into (g, slot, shard), plus the locator
// key of (g, slot, shard) itself. Callers use this to invalidate or
// inspect an entire rollup subtree in one pass.
func (m *ShardStateManager) GetChildAndSelfKeysForSlot(shard int, g granularity.Granularity, slot int) []string {
	keys := g.ChildrenKeys(slot, shard)

	return append(keys, g.LocatorKey(slot, shard))
}

// ManagedContains reports whether shard is in the managed set. An empty
// managed set always reports false for every shard; callers use that to
// distinguish "not managing anything yet" from "managing some shards,
// just not this one."
func (m *ShardStateManager) ManagedContains(shard int) bool {
	_, ok := m.managed.Load(shard)

	return ok
}

// ManagedAdd marks shard as managed by this process.
//
// Possible errors: [ErrUnknownShard]
func (m *ShardStateManager) ManagedAdd(shard int) error {
	if _, ok := m.managers[shard]; !ok {
		return fmt.Errorf("%w: shard %d", ErrUnknownShard, shard)
	}

	m.managed.Store(shard, struct{}{})

	return nil
}

// ManagedRemove unmarks shard as managed. Removing a shard that was
// never managed is a no-op.
func (m *ShardStateManager) ManagedRemove(shard int) {
	m.managed.Delete(shard)
}

// ManagedShards returns every shard currently in the managed set, in no
// particular order.
func (m *ShardStateManager) ManagedShards() []int {
	var out []int

	m.managed.Range(func(k, _ any) bool {
		out = append(out, k.(int))

		return true
	})

	return out
}

// Universe returns every shard this manager was constructed with,
// regardless of managed-set membership.
func (m *ShardStateManager) Universe() []int {
	out := make([]int, 0, len(m.managers))
	for shard := range m.managers {
		out = append(out, shard)
	}

	return out
}

// Snapshot returns every known slot for shard, grouped by granularity
// name, for diagnostic display. It is not part of the merge algebra and
// has no effect on slot state; callers that need a consistent view
// should not rely on it being atomic across granularities.
//
// Possible errors: [ErrUnknownShard]
func (m *ShardStateManager) Snapshot(shard int) (map[string][]SlotState, error) {
	perGran, ok := m.managers[shard]
	if !ok {
		return nil, fmt.Errorf("%w: shard %d", ErrUnknownShard, shard)
	}

	out := make(map[string][]SlotState, len(perGran))

	for name, sm := range perGran {
		stamps := sm.GetSlotStamps()
		if len(stamps) == 0 {
			continue
		}

		states := make([]SlotState, 0, len(stamps))

		for slot, stamp := range stamps {
			view := stamp.Snapshot()
			states = append(states, SlotState{
				Granularity: sm.granularity,
				Slot:        slot,
				Timestamp:   view.Timestamp,
				State:       view.State,
			})
		}

		out[name] = states
	}

	return out, nil
}
