// Package model is a plain, single-threaded oracle for the slot merge
// algebra, used to differentially test pkg/rollupstate.SlotStateManager
// against a version of the same rules with no concurrency concerns at
// all. Mirroring pkg/slotcache/model, it exists purely for tests: it has
// no locking, no telemetry, and no notion of a live view.
package model

import "github.com/shardstate/rollupd/pkg/rollupstate"

// Stamp is the model's copy of one slot's state.
type Stamp struct {
	Timestamp int64
	State     rollupstate.StampState
	Dirty     bool
}

// SlotMap is a single-(shard, granularity) oracle: a plain map applying
// the same merge rules as SlotStateManager, with no concurrency.
type SlotMap struct {
	slots map[int]Stamp
}

// New returns an empty SlotMap oracle.
func New() *SlotMap {
	return &SlotMap{slots: make(map[int]Stamp)}
}

// Ingest mirrors SlotStateManager.CreateOrUpdateForSlotAndMillisecond.
func (m *SlotMap) Ingest(slot int, nowMillis int64) {
	m.slots[slot] = Stamp{Timestamp: nowMillis, State: rollupstate.StateActive, Dirty: true}
}

// UpdateOnRead mirrors SlotStateManager.UpdateSlotOnRead.
func (m *SlotMap) UpdateOnRead(slot int, incomingTimestamp int64, incomingState rollupstate.StampState) {
	cur, ok := m.slots[slot]
	if !ok {
		m.slots[slot] = Stamp{Timestamp: incomingTimestamp, State: incomingState, Dirty: false}

		return
	}

	if cur.Timestamp != incomingTimestamp && incomingState == rollupstate.StateActive {
		if cur.State == rollupstate.StateActive && (cur.Timestamp > incomingTimestamp || cur.Dirty) {
			cur.Dirty = true
		} else {
			cur = Stamp{Timestamp: incomingTimestamp, State: rollupstate.StateActive, Dirty: false}
		}

		m.slots[slot] = cur

		return
	}

	if cur.Timestamp == incomingTimestamp && incomingState == rollupstate.StateRolled {
		cur.State = rollupstate.StateRolled
		m.slots[slot] = cur
	}
}

// DrainDirty mirrors SlotStateManager.GetDirtySlotStampsAndMarkClean.
func (m *SlotMap) DrainDirty() map[int]Stamp {
	out := make(map[int]Stamp)

	for slot, stamp := range m.slots {
		if stamp.Dirty {
			out[slot] = stamp
			stamp.Dirty = false
			m.slots[slot] = stamp
		}
	}

	return out
}

// Lookup returns the oracle's current view of slot.
func (m *SlotMap) Lookup(slot int) (Stamp, bool) {
	s, ok := m.slots[slot]

	return s, ok
}
