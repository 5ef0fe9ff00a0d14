// Package config loads rollupctl's configuration: the granularity
// ladder, the shard universe and managed-shard list, per-granularity
// rollup max-age thresholds, and the demo persister's snapshot path.
//
// It follows the same precedence chain and file format as the teacher's
// own config loader: defaults, then a global user config file, then a
// project config file (or an explicit path), then CLI overrides, parsed
// as comment-tolerant JSON (JSONC) via hujson.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"

	"github.com/shardstate/rollupd/pkg/granularity"
)

// ConfigFileName is the default project-local config file name.
const ConfigFileName = ".rollupd.json"

// TierConfig is one rung of the configured granularity ladder.
type TierConfig struct {
	Name         string `json:"name"`
	SlotDuration string `json:"slot_duration"`
	NumSlots     int    `json:"num_slots"`
}

// Config holds all rollupctl configuration options.
type Config struct {
	ShardCount    int              `json:"shard_count,omitempty"`
	ManagedShards []int            `json:"managed_shards,omitempty"`
	Tiers         []TierConfig     `json:"tiers,omitempty"`
	MaxAgeMillis  map[string]int64 `json:"max_age_millis,omitempty"`
	SnapshotPath  string           `json:"snapshot_path,omitempty"`
}

// ConfigSources tracks which config files were loaded, for diagnostics.
type ConfigSources struct {
	Global  string
	Project string
}

// Overrides carries CLI-flag values and whether each was actually set,
// mirroring the teacher's hasTicketDirOverride pattern: a Config alone
// cannot distinguish "flag set to the zero value" from "flag not set".
type Overrides struct {
	ShardCount       int
	HasShardCount    bool
	SnapshotPath     string
	HasSnapshotPath  bool
	ManagedShards    []int
	HasManagedShards bool
}

// DefaultConfig returns the built-in configuration: a single-shard
// universe on the default granularity ladder.
func DefaultConfig() Config {
	tiers := make([]TierConfig, 0, 6)
	for _, t := range []struct {
		name     string
		duration time.Duration
		slots    int
	}{
		{"full", time.Second, 86400},
		{"5m", 5 * time.Minute, 2016},
		{"20m", 20 * time.Minute, 504},
		{"60m", time.Hour, 168},
		{"240m", 4 * time.Hour, 42},
		{"1440m", 24 * time.Hour, 365},
	} {
		tiers = append(tiers, TierConfig{Name: t.name, SlotDuration: t.duration.String(), NumSlots: t.slots})
	}

	return Config{
		ShardCount:    1,
		ManagedShards: []int{0},
		Tiers:         tiers,
		MaxAgeMillis: map[string]int64{
			"full": int64(5 * time.Minute / time.Millisecond),
		},
		SnapshotPath: filepath.Join(".rollupd", "snapshot.json"),
	}
}

// LoadConfig loads configuration with the following precedence (highest
// wins): defaults, global user config, project/explicit config file,
// CLI overrides.
func LoadConfig(workDir, configPath string, overrides Overrides, env []string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if overrides.HasShardCount {
		cfg.ShardCount = overrides.ShardCount
	}

	if overrides.HasSnapshotPath {
		cfg.SnapshotPath = overrides.SnapshotPath
	}

	if overrides.HasManagedShards {
		cfg.ManagedShards = overrides.ManagedShards
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, ConfigSources{}, err
	}

	return cfg, sources, nil
}

func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "rollupd", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rollupd", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "rollupd", "config.json")
	}

	return ""
}

func loadGlobalConfig(env []string) (Config, string, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	cfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, cfgFile, nil
}

func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.ShardCount != 0 {
		base.ShardCount = overlay.ShardCount
	}

	if overlay.ManagedShards != nil {
		base.ManagedShards = overlay.ManagedShards
	}

	if overlay.Tiers != nil {
		base.Tiers = overlay.Tiers
	}

	if overlay.MaxAgeMillis != nil {
		base.MaxAgeMillis = overlay.MaxAgeMillis
	}

	if overlay.SnapshotPath != "" {
		base.SnapshotPath = overlay.SnapshotPath
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.ShardCount <= 0 {
		return ErrShardCountEmpty
	}

	if len(cfg.Tiers) == 0 {
		return ErrTiersEmpty
	}

	if cfg.SnapshotPath == "" {
		return ErrSnapshotPathEmpty
	}

	return nil
}

// FormatConfig returns cfg as formatted JSON, for the CLI's "info" output.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}

// Ladder builds a granularity.Ladder from cfg's tier definitions.
func (c Config) Ladder() (*granularity.Ladder, error) {
	specs := make([]granularity.TierSpec, 0, len(c.Tiers))

	for _, t := range c.Tiers {
		d, err := time.ParseDuration(t.SlotDuration)
		if err != nil {
			return nil, fmt.Errorf("%w: tier %q: %w", ErrConfigInvalid, t.Name, err)
		}

		specs = append(specs, granularity.TierSpec{Name: t.Name, SlotDuration: d, NumSlots: t.NumSlots})
	}

	return granularity.NewLadder(specs)
}

// MaxAgeMillisFor returns the configured max-age threshold for
// granularity name, falling back to the "full" entry and then to five
// minutes if neither is configured.
func (c Config) MaxAgeMillisFor(name string) int64 {
	if v, ok := c.MaxAgeMillis[name]; ok {
		return v
	}

	if v, ok := c.MaxAgeMillis["full"]; ok {
		return v
	}

	return int64(5 * time.Minute / time.Millisecond)
}
