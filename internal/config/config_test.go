package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "namecorpus.db", cfg.Store.Path)
	assert.Equal(t, "flat", cfg.Metric.Mode)
	assert.InDelta(t, 3.0, cfg.Gaps.Threshold, 0.001)
	assert.InDelta(t, 1.0, cfg.Miner.MinDistance, 0.001)
	assert.InDelta(t, 2.0, cfg.Miner.MaxDistance, 0.001)
	assert.InDelta(t, 4.0, cfg.Miner.LooseRadius, 0.001)
	assert.Equal(t, 3, cfg.Expansion.CandidatesPerGap)
	assert.Equal(t, 3, cfg.Expansion.VoteCount)
	assert.InDelta(t, 0.20, cfg.Expansion.AcceptanceFloor, 0.001)
	assert.Equal(t, 8, cfg.Expansion.Concurrency)
	assert.Equal(t, 60, cfg.Expansion.CollaboratorTimeoutSec)
	assert.Equal(t, 3, cfg.Expansion.MaxRoundFailures)
	assert.Equal(t, 0, cfg.Expansion.MaxRounds)
	assert.Equal(t, "Person", cfg.Extract.Schema)
	assert.Equal(t, 100, cfg.Extract.PerEntityCap)
	assert.Equal(t, uint64(42), cfg.Extract.Seed)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  path: /var/lib/corpus.db
metric:
  mode: weighted
gaps:
  threshold: 2.5
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/corpus.db", cfg.Store.Path)
	assert.Equal(t, "weighted", cfg.Metric.Mode)
	assert.InDelta(t, 2.5, cfg.Gaps.Threshold, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Expansion.VoteCount)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
metric:
  mode: weighted
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("NAMECORPUS_METRIC_MODE", "flat")
	t.Setenv("NAMECORPUS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "flat", cfg.Metric.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("NAMECORPUS_EXPANSION_CONCURRENCY", "16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Expansion.Concurrency)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Path = "namecorpus.db"
	cfg.Metric.Mode = "flat"
	cfg.Gaps.Threshold = 3.0
	cfg.Miner.MinDistance = 1.0
	cfg.Miner.MaxDistance = 2.0
	cfg.Expansion.VoteCount = 3
	cfg.Expansion.AcceptanceFloor = 0.20
	cfg.Expansion.Concurrency = 8
	return cfg
}

func TestValidateBuild(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("build"))
}

func TestValidateExpand_MissingKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("expand")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateExpand_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	assert.NoError(t, cfg.Validate("expand"))
}

func TestValidateBadMetricMode(t *testing.T) {
	cfg := validDefaults()
	cfg.Metric.Mode = "euclidean"

	err := cfg.Validate("build")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "metric.mode")
}

func TestValidateDistanceBand(t *testing.T) {
	cfg := validDefaults()
	cfg.Miner.MinDistance = 3
	cfg.Miner.MaxDistance = 2

	err := cfg.Validate("mine")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "distance band")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	cfg.Expansion.Concurrency = 0
	err := cfg.Validate("expand")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be between 1 and 64")

	cfg.Expansion.Concurrency = 65
	err = cfg.Validate("expand")
	assert.Error(t, err)

	cfg.Expansion.Concurrency = 64
	assert.NoError(t, cfg.Validate("expand"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
