package rollupstate

import (
	"sync"

	"github.com/shardstate/rollupd/internal/telemetry"
	"github.com/shardstate/rollupd/pkg/clock"
	"github.com/shardstate/rollupd/pkg/granularity"
)

// SlotStateManager owns the per-slot UpdateStamps for one (shard,
// granularity) pair. Its slot map is a sync.Map rather than a
// mutex-guarded map: every operation here needs at most a single
// lookup-or-insert, and sync.Map's LoadOrStore gives that atomically
// without a manager-wide lock serializing unrelated slots.
//
// No method here blocks on another slot's update. Two goroutines
// racing on the same slot converge through the merge rules in
// UpdateSlotOnRead and CreateOrUpdateForSlotAndMillisecond, not through
// mutual exclusion.
type SlotStateManager struct {
	shard       int
	granularity granularity.Granularity
	clock       clock.Clock
	telemetry   telemetry.Sink

	slots sync.Map // int -> *UpdateStamp
}

func newSlotStateManager(shard int, g granularity.Granularity, clk clock.Clock, sink telemetry.Sink) *SlotStateManager {
	return &SlotStateManager{shard: shard, granularity: g, clock: clk, telemetry: sink}
}

// Lookup returns the stamp for slot, if one has been created.
func (m *SlotStateManager) Lookup(slot int) (*UpdateStamp, bool) {
	v, ok := m.slots.Load(slot)
	if !ok {
		return nil, false
	}

	return v.(*UpdateStamp), true
}

// UpdateSlotOnRead merges an incoming read-repair observation into the
// slot's stamp.
//
// If the slot has never been seen, the observation is stored as-is.
// Otherwise: an incoming Active observation at a different timestamp
// overwrites the stamp unless the stamp is already Active and is either
// newer or dirty — in which case the stamp is only marked dirty, since
// the local state already reflects something the incoming observation
// does not know about yet. An incoming Rolled observation at the same
// timestamp as the stamp transitions the stamp to Rolled: this is the
// only way a slot moves to Rolled purely from a read, and it only ever
// fires when the reader is looking at exactly the data the rollup
// already consumed. Anything else is a no-op; ingest always wins over a
// stale or mismatched read.
func (m *SlotStateManager) UpdateSlotOnRead(slot int, incomingTimestamp int64, incomingState StampState) {
	for {
		v, loaded := m.slots.Load(slot)
		if !loaded {
			candidate := newUpdateStamp(incomingTimestamp, incomingState, false)

			actual, raced := m.slots.LoadOrStore(slot, candidate)
			if !raced {
				return
			}

			v = actual
		}

		cur := v.(*UpdateStamp)

		if cur.Timestamp() != incomingTimestamp && incomingState == StateActive {
			if cur.State() == StateActive && (cur.Timestamp() > incomingTimestamp || cur.Dirty()) {
				cur.SetDirty(true)
			} else {
				cur.SetTimestamp(incomingTimestamp)
				cur.SetState(StateActive)
				cur.SetDirty(false)
			}

			return
		}

		if cur.Timestamp() == incomingTimestamp && incomingState == StateRolled {
			cur.SetState(StateRolled)
		}

		return
	}
}

// CreateOrUpdateForSlotAndMillisecond records an ingest write to slot at
// nowMillis: the slot is created or reactivated Active and dirty, and a
// re-roll tick fires if the slot had already been rolled. Ingest never
// checks the existing timestamp or state before winning.
func (m *SlotStateManager) CreateOrUpdateForSlotAndMillisecond(slot int, nowMillis int64) {
	for {
		v, loaded := m.slots.Load(slot)
		if !loaded {
			candidate := newUpdateStamp(nowMillis, StateActive, true)

			_, raced := m.slots.LoadOrStore(slot, candidate)
			if !raced {
				m.telemetry.UpdateTick(m.shard, m.granularity)

				return
			}

			continue
		}

		cur := v.(*UpdateStamp)

		if cur.State() == StateRolled {
			m.telemetry.ReRollTick(m.shard, m.granularity)
		}

		cur.SetTimestamp(nowMillis)
		cur.SetState(StateActive)
		cur.SetDirty(true)

		m.telemetry.UpdateTick(m.shard, m.granularity)

		return
	}
}

// GetDirtySlotStampsAndMarkClean copies every currently-dirty slot into
// a snapshot and clears its dirty flag in the same pass. The copy and
// the clear are separate steps: a write that sets the dirty flag after
// the clear is picked up on the next call, but one that lands between
// the copy and the clear has its flag cleared and is not reported until
// a later write dirties the slot again. That race is intentional and
// tolerated, since the next ingest to the slot re-dirties it.
func (m *SlotStateManager) GetDirtySlotStampsAndMarkClean() DirtySlots {
	out := make(DirtySlots)

	m.slots.Range(func(k, v any) bool {
		slot := k.(int)
		stamp := v.(*UpdateStamp)

		if stamp.Dirty() {
			out[slot] = stamp.Snapshot()
			stamp.SetDirty(false)
		}

		return true
	})

	return out
}

// GetAndSetState forces slot to newState and returns the stamp's state
// after the change. It reports false if the slot does not exist; the
// call is then a no-op rather than an implicit create, since a rollup
// executor has no business inventing a slot it never saw dirty.
func (m *SlotStateManager) GetAndSetState(slot int, newState StampState) (UpdateStampView, bool) {
	v, ok := m.slots.Load(slot)
	if !ok {
		return UpdateStampView{}, false
	}

	stamp := v.(*UpdateStamp)
	stamp.SetState(newState)

	return stamp.Snapshot(), true
}

// GetSlotStamps returns a live view of every slot this manager has
// created: the set of keys is fixed at the time of the call, but each
// value is the manager's actual *UpdateStamp, not a copy, so a caller
// iterating the result can observe concurrent mutation.
func (m *SlotStateManager) GetSlotStamps() map[int]*UpdateStamp {
	out := make(map[int]*UpdateStamp)

	m.slots.Range(func(k, v any) bool {
		out[k.(int)] = v.(*UpdateStamp)

		return true
	})

	return out
}

// GetSlotsOlderThan returns every non-Rolled slot whose last update is
// more than maxAgeMillis behind now, recording an age sample for every
// slot visited regardless of whether it qualifies.
func (m *SlotStateManager) GetSlotsOlderThan(now, maxAgeMillis int64) []int {
	var out []int

	m.slots.Range(func(k, v any) bool {
		slot := k.(int)
		stamp := v.(*UpdateStamp)

		age := now - stamp.Timestamp()
		m.telemetry.ObserveAge(m.shard, m.granularity, age)

		if stamp.State() != StateRolled && age > maxAgeMillis {
			out = append(out, slot)
		}

		return true
	})

	return out
}

// getOrCreateForPropagation is used by coarser-slot propagation: it
// returns the slot's stamp and whether the slot already existed. A
// concurrent insert racing this call is folded into "already existed"
// so the caller still applies its activation check against whatever won
// the race.
func (m *SlotStateManager) getOrCreateForPropagation(slot int, nowMillis int64) (stamp *UpdateStamp, existed bool) {
	if v, ok := m.slots.Load(slot); ok {
		return v.(*UpdateStamp), true
	}

	candidate := newUpdateStamp(nowMillis, StateActive, true)

	actual, raced := m.slots.LoadOrStore(slot, candidate)

	return actual.(*UpdateStamp), raced
}
