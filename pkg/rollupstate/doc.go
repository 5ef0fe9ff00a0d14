// Package rollupstate tracks, per shard and granularity, which time slots
// hold data that still needs to be rolled up.
//
// A slot's life cycle is represented by an UpdateStamp: a timestamp, a
// state (Active, Rolled, or Running), and a dirty flag. Ingest paths and
// read-repair paths push stamps through SlotStateManager concurrently and
// without coordination; convergence is eventual, not immediate. A single
// stamp may be observed mid-update by a concurrent reader — that is
// expected, not a bug. See SlotStateManager for the merge rules that make
// this safe.
//
// ShardStateManager is the entry point: it owns one SlotStateManager per
// (shard, granularity) pair across the full configured shard universe and
// fans operations out to the right one.
package rollupstate
