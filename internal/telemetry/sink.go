// Package telemetry records the ticks a slot tracker emits on the
// ingest, read-repair, and age-sweep paths. There is no metrics library
// anywhere in this module's dependency set (see DESIGN.md), so Sink is a
// small interface with a counting reference implementation rather than a
// binding to an external system.
package telemetry

import "github.com/shardstate/rollupd/pkg/granularity"

// Sink receives the telemetry ticks rollupstate emits while mutating
// slot state. Implementations must be safe for concurrent use: every
// tick can fire from any ingest, read-repair, or rollup goroutine.
type Sink interface {
	// UpdateTick fires every time an ingest updates or creates a slot.
	UpdateTick(shard int, g granularity.Granularity)

	// ReRollTick fires when an ingest reactivates a slot that had
	// already been rolled.
	ReRollTick(shard int, g granularity.Granularity)

	// ParentBeforeChildTick fires when coarser-slot propagation finds a
	// parent slot that was not already active, signaling the parent's
	// own read-sync/ingest has not caught up yet.
	ParentBeforeChildTick(shard int, g granularity.Granularity)

	// ObserveAge records, for each slot visited by an age sweep, how far
	// behind its last update is.
	ObserveAge(shard int, g granularity.Granularity, ageMillis int64)
}

// NoopSink discards every tick. Useful for tests that do not care about
// telemetry side effects.
type NoopSink struct{}

func (NoopSink) UpdateTick(int, granularity.Granularity)            {}
func (NoopSink) ReRollTick(int, granularity.Granularity)            {}
func (NoopSink) ParentBeforeChildTick(int, granularity.Granularity) {}
func (NoopSink) ObserveAge(int, granularity.Granularity, int64)     {}
