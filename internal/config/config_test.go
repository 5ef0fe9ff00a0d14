package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardstate/rollupd/internal/config"
)

func Test_LoadConfig_ReturnsDefaultsWhenNoFilesExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, sources, err := config.LoadConfig(dir, "", config.Overrides{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", sources.Global)
	assert.Equal(t, "", sources.Project)
	assert.Equal(t, config.DefaultConfig().ShardCount, cfg.ShardCount)
}

func Test_LoadConfig_ProjectFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)

	require.NoError(t, os.WriteFile(path, []byte(`{
		// allow trailing commas and comments like the rest of this module's configs
		"shard_count": 16,
		"managed_shards": [0, 1, 2],
	}`), 0o600))

	cfg, sources, err := config.LoadConfig(dir, "", config.Overrides{}, nil)
	require.NoError(t, err)
	assert.Equal(t, path, sources.Project)
	assert.Equal(t, 16, cfg.ShardCount)
	assert.Equal(t, []int{0, 1, 2}, cfg.ManagedShards)
}

func Test_LoadConfig_CLIOverridesWinOverFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"shard_count": 16}`), 0o600))

	cfg, _, err := config.LoadConfig(dir, "", config.Overrides{ShardCount: 4, HasShardCount: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.ShardCount)
}

func Test_LoadConfig_ExplicitConfigPathMustExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := config.LoadConfig(dir, "missing.json", config.Overrides{}, nil)
	assert.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func Test_LoadConfig_RejectsInvalidShardCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"shard_count": 0}`), 0o600))

	_, _, err := config.LoadConfig(dir, "", config.Overrides{}, nil)
	assert.ErrorIs(t, err, config.ErrShardCountEmpty)
}

func Test_Config_Ladder_BuildsFromTierDefinitions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	ladder, err := cfg.Ladder()
	require.NoError(t, err)
	assert.Len(t, ladder.Granularities(), len(cfg.Tiers))
}

func Test_Config_MaxAgeMillisFor_FallsBackToFullThenDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Config{MaxAgeMillis: map[string]int64{"full": 1234, "5m": 5678}}

	assert.Equal(t, int64(5678), cfg.MaxAgeMillisFor("5m"))
	assert.Equal(t, int64(1234), cfg.MaxAgeMillisFor("20m"))

	empty := config.Config{}
	assert.Equal(t, int64(5*60*1000), empty.MaxAgeMillisFor("whatever"))
}

func Test_FormatConfig_ProducesIndentedJSON(t *testing.T) {
	t.Parallel()

	out, err := config.FormatConfig(config.DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, out, "\"shard_count\"")
}
