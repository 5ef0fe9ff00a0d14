package rollupstate

import "sync/atomic"

// UpdateStamp is the mutable per-slot record: a timestamp, a state, and
// a dirty flag. Each field is its own atomic so that concurrent readers
// never observe a torn int64 or bool, but the three fields are not
// updated as one atomic unit. A reader racing a writer can see, for
// example, a new timestamp paired with the old state. Every merge rule
// in SlotStateManager is written to tolerate that: the worst outcome of
// a torn read is an extra no-op or an extra dirty propagation on the
// next pass, never lost data.
type UpdateStamp struct {
	timestamp atomic.Int64
	state     atomic.Uint32
	dirty     atomic.Bool
}

func newUpdateStamp(timestampMillis int64, state StampState, dirty bool) *UpdateStamp {
	s := &UpdateStamp{}
	s.timestamp.Store(timestampMillis)
	s.state.Store(uint32(state))
	s.dirty.Store(dirty)

	return s
}

// Timestamp returns the stamp's last-write time in Unix milliseconds.
func (s *UpdateStamp) Timestamp() int64 { return s.timestamp.Load() }

// SetTimestamp overwrites the stamp's timestamp.
func (s *UpdateStamp) SetTimestamp(v int64) { s.timestamp.Store(v) }

// State returns the stamp's current StampState.
func (s *UpdateStamp) State() StampState { return StampState(s.state.Load()) }

// SetState overwrites the stamp's state.
func (s *UpdateStamp) SetState(v StampState) { s.state.Store(uint32(v)) }

// Dirty reports whether the stamp has unextracted changes.
func (s *UpdateStamp) Dirty() bool { return s.dirty.Load() }

// SetDirty overwrites the stamp's dirty flag.
func (s *UpdateStamp) SetDirty(v bool) { s.dirty.Store(v) }

// Snapshot copies the stamp's three fields into a value type. The three
// loads are independent; see the UpdateStamp doc comment.
func (s *UpdateStamp) Snapshot() UpdateStampView {
	return UpdateStampView{
		Timestamp: s.Timestamp(),
		State:     s.State(),
		Dirty:     s.Dirty(),
	}
}
