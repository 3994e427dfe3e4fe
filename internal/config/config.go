package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMongo    = "mongo"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	StoreBackend   string `toml:"store_backend"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	MongoDatabase  string `toml:"mongo_database"`

	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// ranking
	RecomputeCron           string `toml:"recompute_cron"`
	RecomputeOnSubmit       bool   `toml:"recompute_on_submit"`
	RecomputeTimeoutSeconds int    `toml:"recompute_timeout_seconds"`
	SnapshotCacheTTLSeconds int    `toml:"snapshot_cache_ttl_seconds"`
	ProfileCacheSizeMB      int    `toml:"profile_cache_size_mb"`
	ProfileCacheTTLSeconds  int    `toml:"profile_cache_ttl_seconds"`

	// rate limits
	SubmitRateLimitAllowedPerMin    int `toml:"submit_rate_limit_allowed_per_min"`
	RecomputeRateLimitAllowedPerMin int `toml:"recompute_rate_limit_allowed_per_min"`

	AllowedOrigins []string `toml:"allowed_origins"`

	DefaultWeights Weights `toml:"default_weights"`
}

// Weights mirrors the scoring weights so the defaults can be tuned per environment.
type Weights struct {
	Strength    float64 `toml:"strength"`
	Stamina     float64 `toml:"stamina"`
	Consistency float64 `toml:"consistency"`
	Improvement float64 `toml:"improvement"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case StoreBackendPostgres, StoreBackendMongo, StoreBackendMemory:
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendPostgres
	}
	if c.RecomputeTimeoutSeconds <= 0 {
		c.RecomputeTimeoutSeconds = 300
	}
	if c.SnapshotCacheTTLSeconds <= 0 {
		c.SnapshotCacheTTLSeconds = 60
	}
	if c.ProfileCacheSizeMB <= 0 {
		c.ProfileCacheSizeMB = 10
	}
	if c.ProfileCacheTTLSeconds <= 0 {
		c.ProfileCacheTTLSeconds = 300
	}
	if c.SubmitRateLimitAllowedPerMin <= 0 {
		c.SubmitRateLimitAllowedPerMin = 120
	}
	if c.RecomputeRateLimitAllowedPerMin <= 0 {
		c.RecomputeRateLimitAllowedPerMin = 4
	}
	if c.DefaultWeights == (Weights{}) {
		c.DefaultWeights = Weights{
			Strength:    0.30,
			Stamina:     0.25,
			Consistency: 0.25,
			Improvement: 0.20,
		}
	}
}
