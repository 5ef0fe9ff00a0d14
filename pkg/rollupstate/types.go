package rollupstate

import "github.com/shardstate/rollupd/pkg/granularity"

// StampState is the state component of an UpdateStamp.
type StampState uint32

const (
	// StateActive means the slot has data that has not yet been rolled up.
	StateActive StampState = iota
	// StateRolled means a rollup executor has already processed this slot
	// and no write has touched it since.
	StateRolled
	// StateRunning means a rollup executor currently holds the slot.
	StateRunning
)

// String returns the lower-case name used in persisted snapshots and CLI
// output.
func (s StampState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRolled:
		return "rolled"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// UpdateStampView is an immutable snapshot of an UpdateStamp's three
// fields, taken with three independent atomic loads. The fields may not
// be mutually consistent if the source stamp is mutated concurrently;
// that is acceptable everywhere a view is handed out (see doc.go).
type UpdateStampView struct {
	Timestamp int64
	State     StampState
	Dirty     bool
}

// SlotState is the unit of read-repair input: one peer's view of one
// slot, destined for SlotStateManager.UpdateSlotOnRead.
type SlotState struct {
	Granularity granularity.Granularity
	Slot        int
	Timestamp   int64
	State       StampState
}

// DirtySlots is a snapshot of the slots a SlotStateManager considered
// dirty at the moment GetDirtySlotStampsAndMarkClean was called. The
// stamps themselves are cleared of their dirty flag as they are copied
// in; the snapshot is never mutated afterward.
type DirtySlots map[int]UpdateStampView
