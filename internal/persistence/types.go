// Package persistence defines the boundary between a slot tracker and
// the shared, persisted state its ingest and rollup nodes converge
// through, plus a demo file-backed implementation of it for the CLI and
// tests. Production deployments plug in their own Store; FileStore here
// is not meant to survive real cluster use.
package persistence

import "github.com/shardstate/rollupd/pkg/rollupstate"

// Store is the persistence boundary a tracker's read-sync and pusher
// threads talk to.
type Store interface {
	// PullState returns every slot observation currently published for
	// shard, for feeding into ShardStateManager.UpdateSlotOnRead. It
	// returns an empty slice, not an error, when nothing has been
	// published yet.
	PullState(shard int) ([]rollupstate.SlotState, error)

	// PushDirty publishes a shard's dirty slots, keyed by granularity
	// name, as returned by ShardStateManager.GetDirtySlotsToPersist. It
	// merges into whatever was previously published rather than
	// replacing it wholesale.
	PushDirty(shard int, dirty map[string]rollupstate.DirtySlots) error
}
