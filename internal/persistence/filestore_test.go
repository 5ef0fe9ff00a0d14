package persistence_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardstate/rollupd/internal/persistence"
	"github.com/shardstate/rollupd/internal/telemetry"
	"github.com/shardstate/rollupd/pkg/clock"
	"github.com/shardstate/rollupd/pkg/granularity"
	"github.com/shardstate/rollupd/pkg/rollupstate"
)

func Test_FileStore_PullState_ReturnsEmptyWhenNothingPublished(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()
	store := persistence.NewFileStore(t.TempDir(), ladder)

	out, err := store.PullState(1)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func Test_FileStore_PushThenPull_RoundTripsDirtySlots(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()
	g := ladder.Granularities()[0]

	store := persistence.NewFileStore(t.TempDir(), ladder)

	dirty := map[string]rollupstate.DirtySlots{
		g.Name(): {
			12: {Timestamp: 5000, State: rollupstate.StateActive, Dirty: true},
		},
	}

	require.NoError(t, store.PushDirty(1, dirty))

	out, err := store.PullState(1)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, g.Name(), out[0].Granularity.Name())
	assert.Equal(t, 12, out[0].Slot)
	assert.Equal(t, int64(5000), out[0].Timestamp)
	assert.Equal(t, rollupstate.StateActive, out[0].State)
}

func Test_FileStore_PushDirty_MergesAcrossCalls(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()
	grans := ladder.Granularities()

	store := persistence.NewFileStore(t.TempDir(), ladder)

	require.NoError(t, store.PushDirty(1, map[string]rollupstate.DirtySlots{
		grans[0].Name(): {1: {Timestamp: 100, State: rollupstate.StateActive, Dirty: true}},
	}))
	require.NoError(t, store.PushDirty(1, map[string]rollupstate.DirtySlots{
		grans[1].Name(): {2: {Timestamp: 200, State: rollupstate.StateActive, Dirty: true}},
	}))

	out, err := store.PullState(1)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

// Test_FileStore_SimulatesTwoNodesConvergingThroughSharedFile demonstrates
// the convergence loop end to end: one node ingests and pushes, a second
// node pulls and merges through UpdateSlotOnRead.
func Test_FileStore_SimulatesTwoNodesConvergingThroughSharedFile(t *testing.T) {
	t.Parallel()

	ladder := granularity.DefaultLadder()
	g := ladder.Granularities()[0]
	dir := filepath.Join(t.TempDir(), "shared")

	writerStore := persistence.NewFileStore(dir, ladder)
	readerStore := persistence.NewFileStore(dir, ladder)

	reader := rollupstate.NewShardStateManager([]int{1}, ladder, clock.NewManualClock(0), telemetry.NoopSink{})

	require.NoError(t, writerStore.PushDirty(1, map[string]rollupstate.DirtySlots{
		g.Name(): {7: {Timestamp: 900, State: rollupstate.StateActive, Dirty: true}},
	}))

	observations, err := readerStore.PullState(1)
	require.NoError(t, err)
	require.Len(t, observations, 1)

	for _, obs := range observations {
		require.NoError(t, reader.UpdateSlotOnRead(1, obs))
	}

	stamp, ok := reader.GetUpdateStamp(1, g, 7)
	require.True(t, ok)
	assert.Equal(t, int64(900), stamp.Timestamp())
	assert.Equal(t, rollupstate.StateActive, stamp.State())
}
