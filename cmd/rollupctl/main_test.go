package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BuildApp_WithNoConfigFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	app, err := buildApp([]string{"rollupctl", "--cwd", dir})
	require.NoError(t, err)
	assert.Equal(t, 1, app.cfg.ShardCount)
	assert.Equal(t, []int{0}, app.tracker.ManagedShards())
	assert.Len(t, app.ladder.Granularities(), len(app.cfg.Tiers))
}

func Test_BuildApp_ShardCountAndManagedOverridesApply(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	app, err := buildApp([]string{"rollupctl", "--cwd", dir, "--shard-count", "4", "--managed", "1,2"})
	require.NoError(t, err)
	assert.Equal(t, 4, app.cfg.ShardCount)
	assert.ElementsMatch(t, []int{1, 2}, app.tracker.ManagedShards())
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, app.tracker.Universe())
}

func Test_BuildApp_SnapshotDirOverrideIsRespected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snapDir := filepath.Join(dir, "snaps")

	app, err := buildApp([]string{"rollupctl", "--cwd", dir, "--snapshot-dir", snapDir})
	require.NoError(t, err)
	assert.Equal(t, snapDir, app.cfg.SnapshotPath)
}

func Test_ParseShardList_TrimsAndSkipsEmpty(t *testing.T) {
	t.Parallel()

	out, err := parseShardList(" 1, 2,3 ,")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func Test_ParseShardList_RejectsNonInteger(t *testing.T) {
	t.Parallel()

	_, err := parseShardList("1,x")
	assert.Error(t, err)
}

func Test_BuildApp_PipelineIngestPushPullEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	app, err := buildApp([]string{"rollupctl", "--cwd", dir})
	require.NoError(t, err)

	g := app.ladder.Granularities()[0]

	require.NoError(t, app.tracker.Ingest(0, g, 5, 1000))

	dirty, err := app.tracker.GetDirtySlotsToPersist(0)
	require.NoError(t, err)
	require.NoError(t, app.store.PushDirty(0, dirty))

	observations, err := app.store.PullState(0)
	require.NoError(t, err)
	require.Len(t, observations, 1)

	stamp, ok := app.tracker.GetUpdateStamp(0, g, 5)
	require.True(t, ok)
	assert.Equal(t, int64(1000), stamp.Timestamp())
}
