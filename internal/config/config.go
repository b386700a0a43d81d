package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Metric    MetricConfig    `yaml:"metric" mapstructure:"metric"`
	Gaps      GapsConfig      `yaml:"gaps" mapstructure:"gaps"`
	Miner     MinerConfig     `yaml:"miner" mapstructure:"miner"`
	Expansion ExpansionConfig `yaml:"expansion" mapstructure:"expansion"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MetricConfig selects the syllable distance mode.
type MetricConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// GapsConfig configures gap detection over the sorted corpus.
type GapsConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// MinerConfig configures hard-negative mining distance bands.
type MinerConfig struct {
	MinDistance float64 `yaml:"min_distance" mapstructure:"min_distance"`
	MaxDistance float64 `yaml:"max_distance" mapstructure:"max_distance"`
	LooseRadius float64 `yaml:"loose_radius" mapstructure:"loose_radius"`
}

// ExpansionConfig configures the iterative densification loop.
type ExpansionConfig struct {
	CandidatesPerGap       int     `yaml:"candidates_per_gap" mapstructure:"candidates_per_gap"`
	VoteCount              int     `yaml:"vote_count" mapstructure:"vote_count"`
	AcceptanceFloor        float64 `yaml:"acceptance_floor" mapstructure:"acceptance_floor"`
	Concurrency            int     `yaml:"concurrency" mapstructure:"concurrency"`
	CollaboratorTimeoutSec int     `yaml:"collaborator_timeout_secs" mapstructure:"collaborator_timeout_secs"`
	MaxRoundFailures       int     `yaml:"max_round_failures" mapstructure:"max_round_failures"`
	MaxRounds              int     `yaml:"max_rounds" mapstructure:"max_rounds"`
	RetryMaxAttempts       int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryInitialBackoffMS  int     `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
}

// ExtractConfig configures entity ingestion and pair generation.
type ExtractConfig struct {
	Schema       string   `yaml:"schema" mapstructure:"schema"`
	MinLength    int      `yaml:"min_length" mapstructure:"min_length"`
	Datasets     []string `yaml:"datasets" mapstructure:"datasets"`
	PerEntityCap int      `yaml:"per_entity_cap" mapstructure:"per_entity_cap"`
	Seed         uint64   `yaml:"seed" mapstructure:"seed"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	GeneratorModel string  `yaml:"generator_model" mapstructure:"generator_model"`
	ValidatorModel string  `yaml:"validator_model" mapstructure:"validator_model"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NAMECORPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "namecorpus.db")
	v.SetDefault("metric.mode", "flat")
	v.SetDefault("gaps.threshold", 3.0)
	v.SetDefault("miner.min_distance", 1.0)
	v.SetDefault("miner.max_distance", 2.0)
	v.SetDefault("miner.loose_radius", 4.0)
	v.SetDefault("expansion.candidates_per_gap", 3)
	v.SetDefault("expansion.vote_count", 3)
	v.SetDefault("expansion.acceptance_floor", 0.20)
	v.SetDefault("expansion.concurrency", 8)
	v.SetDefault("expansion.collaborator_timeout_secs", 60)
	v.SetDefault("expansion.max_round_failures", 3)
	v.SetDefault("expansion.max_rounds", 0)
	v.SetDefault("expansion.retry_max_attempts", 3)
	v.SetDefault("expansion.retry_initial_backoff_ms", 500)
	v.SetDefault("extract.schema", "Person")
	v.SetDefault("extract.min_length", 2)
	v.SetDefault("extract.per_entity_cap", 100)
	v.SetDefault("extract.seed", 42)
	v.SetDefault("anthropic.generator_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.validator_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.requests_per_sec", 4.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode needs before running. Modes
// mirror the CLI commands: "build" ingests entities offline, "expand"
// talks to the Anthropic API, "mine" and "export" only need the store.
func (c *Config) Validate(mode string) error {
	var missing []string

	check := func(ok bool, msg string) {
		if !ok {
			missing = append(missing, msg)
		}
	}

	check(c.Store.Path != "", "store.path is required")
	check(c.Metric.Mode == "flat" || c.Metric.Mode == "weighted",
		"metric.mode must be flat or weighted")
	check(c.Gaps.Threshold > 0, "gaps.threshold must be > 0")
	check(c.Miner.MinDistance >= 0 && c.Miner.MaxDistance >= c.Miner.MinDistance,
		"miner distance band must satisfy 0 <= min_distance <= max_distance")

	switch mode {
	case "build", "import", "mine", "export", "status":
	case "expand":
		check(c.Anthropic.Key != "", "anthropic.key is required")
		check(c.Expansion.VoteCount > 0, "expansion.vote_count must be > 0")
		check(c.Expansion.AcceptanceFloor >= 0 && c.Expansion.AcceptanceFloor < 1,
			"expansion.acceptance_floor must be in [0, 1)")
		check(c.Expansion.Concurrency >= 1 && c.Expansion.Concurrency <= 64,
			"expansion.concurrency must be between 1 and 64")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
