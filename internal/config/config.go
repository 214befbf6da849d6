// Package config provides the immutable application configuration: a yaml
// file with defaults, overridden by environment variables, validated once
// at startup and passed by injection to every component that needs it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all wren configuration.
type Config struct {
	// Provider credentials and endpoints, in selection priority order:
	// Moonshot, then OpenAI, then Gemini.
	Providers ProvidersConfig `yaml:"providers"`

	// Interview policy knobs.
	Interview InterviewConfig `yaml:"interview"`

	// Checkpoint persistence.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// HTTP server (serve subcommand).
	Server ServerConfig `yaml:"server"`
}

// ProvidersConfig configures the completion backends.
type ProvidersConfig struct {
	Moonshot ProviderConfig `yaml:"moonshot"`
	OpenAI   ProviderConfig `yaml:"openai"`
	Gemini   ProviderConfig `yaml:"gemini"`
}

// ProviderConfig is one candidate provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses the provider timeout, falling back to def.
func (p ProviderConfig) TimeoutDuration(def time.Duration) time.Duration {
	if p.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// InterviewConfig configures the session controller and turn analyzer.
type InterviewConfig struct {
	// MaxTurns is the hard cap on respondent turns before a profile is
	// synthesized regardless of coverage.
	MaxTurns int `yaml:"max_turns"`

	// MinTurns is the floor below which readiness never fires early.
	MinTurns int `yaml:"min_turns"`

	// ReadinessThreshold is the coverage score at which the default policy
	// declares the transcript ready for summary.
	ReadinessThreshold float64 `yaml:"readiness_threshold"`

	// ScoreResponses enables backend-rated stylistic features for the
	// latest respondent turn. When false, a local heuristic scorer runs.
	ScoreResponses bool `yaml:"score_responses"`
}

// CheckpointConfig configures session persistence.
type CheckpointConfig struct {
	// Driver selects the store: "redis", "sqlite", or "memory".
	Driver string `yaml:"driver"`

	// TTL is the checkpoint expiry, reset on every write.
	TTL string `yaml:"ttl"`

	// Redis connection settings (driver=redis).
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// SQLite database path (driver=sqlite).
	DBPath string `yaml:"db_path"`
}

// TTLDuration parses the checkpoint TTL, defaulting to 24h.
func (c CheckpointConfig) TTLDuration() time.Duration {
	if c.TTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Moonshot: ProviderConfig{
				BaseURL: "https://api.moonshot.cn/v1",
				Timeout: "120s",
			},
			OpenAI: ProviderConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "o3-mini",
				Timeout: "120s",
			},
			Gemini: ProviderConfig{
				BaseURL: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "gemini-2.5-flash",
				Timeout: "120s",
			},
		},
		Interview: InterviewConfig{
			MaxTurns:           12,
			MinTurns:           5,
			ReadinessThreshold: 0.75,
			ScoreResponses:     true,
		},
		Checkpoint: CheckpointConfig{
			Driver:    "redis",
			TTL:       "24h",
			RedisAddr: "localhost:6379",
			DBPath:    "data/wren.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from a yaml file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps environment variables onto the config.
func (c *Config) applyEnvOverrides() {
	setString(&c.Providers.Moonshot.APIKey, "MOONSHOT_API_KEY")
	setString(&c.Providers.Moonshot.BaseURL, "MOONSHOT_BASE_URL")
	setString(&c.Providers.Moonshot.Model, "MOONSHOT_MODEL")
	setString(&c.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.Providers.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.Providers.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Providers.Gemini.Model, "GEMINI_MODEL")

	setString(&c.Checkpoint.Driver, "WREN_CHECKPOINT_DRIVER")
	setString(&c.Checkpoint.RedisAddr, "REDIS_ADDR")
	setString(&c.Checkpoint.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.Checkpoint.RedisDB, "REDIS_DB")
	setString(&c.Checkpoint.DBPath, "WREN_DB_PATH")

	setString(&c.Server.Addr, "WREN_ADDR")
}

// Validate checks structural configuration. Provider credential presence is
// deliberately not checked here; the completion factory owns that decision.
func (c *Config) Validate() error {
	switch c.Checkpoint.Driver {
	case "redis", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid checkpoint driver %q (valid: redis, sqlite, memory)", c.Checkpoint.Driver)
	}
	if c.Interview.MaxTurns <= 0 {
		return fmt.Errorf("interview max_turns must be positive, got %d", c.Interview.MaxTurns)
	}
	if c.Interview.MinTurns < 0 || c.Interview.MinTurns > c.Interview.MaxTurns {
		return fmt.Errorf("interview min_turns must be within [0, max_turns], got %d", c.Interview.MinTurns)
	}
	if c.Interview.ReadinessThreshold < 0 || c.Interview.ReadinessThreshold > 1 {
		return fmt.Errorf("interview readiness_threshold must be within [0, 1], got %g", c.Interview.ReadinessThreshold)
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
