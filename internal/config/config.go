package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port        string `env:"PORT" envDefault:"4000"`
	Provider    string `env:"PROVIDER" envDefault:"mlbstats"`
	MLB         MLBConfig
	Upstream    UpstreamConfig
	Cache       CacheConfig
	Batch       BatchConfig
	Fans        FansConfig
	Generator   GeneratorConfig
	Predictions PredictionsConfig
	TeamStats   TeamStatsConfig
	ClientLimit ClientLimitConfig
	Refresh     RefreshConfig
	Admin       AdminConfig
	Metrics     MetricsConfig
	Log         LogConfig
}

// MLBConfig controls how we talk to the MLB Stats API.
type MLBConfig struct {
	BaseURL   string `env:"MLB_BASE_URL" envDefault:"https://statsapi.mlb.com"`
	Season    int    `env:"MLB_SEASON" envDefault:"2024"`
	UserAgent string `env:"MLB_USER_AGENT" envDefault:"mlb-data-service/1.0"`
	Timezone  string `env:"MLB_TIMEZONE" envDefault:"UTC"`
}

// UpstreamConfig tunes the shared fetcher and its rate gate.
type UpstreamConfig struct {
	Timeout        time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
	MaxRetries     int           `env:"UPSTREAM_MAX_RETRIES" envDefault:"2"`
	Backoff        time.Duration `env:"UPSTREAM_BACKOFF" envDefault:"500ms"`
	RateLimitDelay time.Duration `env:"UPSTREAM_RATE_LIMIT_DELAY" envDefault:"1s"`
	RateLimitWaits int           `env:"UPSTREAM_RATE_LIMIT_WAITS" envDefault:"3"`
	Burst          int           `env:"UPSTREAM_BURST" envDefault:"25"`
	Interval       time.Duration `env:"UPSTREAM_INTERVAL" envDefault:"1s"`
}

// CacheConfig sets the freshness windows for the player and team caches.
type CacheConfig struct {
	Fresh       time.Duration `env:"CACHE_FRESH" envDefault:"5m"`
	Stale       time.Duration `env:"CACHE_STALE" envDefault:"30m"`
	LoadTimeout time.Duration `env:"CACHE_LOAD_TIMEOUT" envDefault:"10m"`
}

type BatchConfig struct {
	Size   int `env:"BATCH_SIZE" envDefault:"25"`
	Window int `env:"BATCH_WINDOW" envDefault:"5"`
}

// FansConfig points at the follow dataset. With both set, File mirrors the last good
// download and is read when the URL fails. With only File set, the URL is not used.
// Timeout bounds the download, which is far larger than a stats response.
type FansConfig struct {
	URL     string        `env:"FANS_URL" envDefault:"https://storage.googleapis.com/gcp-mlb-hackathon-2025/datasets/mlb-fan-content-interaction-data/2025-mlb-fan-favs-follows.json"`
	File    string        `env:"FANS_FILE"`
	Timeout time.Duration `env:"FANS_TIMEOUT" envDefault:"60s"`
}

// GeneratorConfig controls the text model used for game predictions.
type GeneratorConfig struct {
	APIKey  string        `env:"GENERATOR_API_KEY"`
	BaseURL string        `env:"GENERATOR_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model   string        `env:"GENERATOR_MODEL" envDefault:"gemini-1.5-flash"`
	Window  time.Duration `env:"GENERATOR_WINDOW" envDefault:"60s"`
}

type PredictionsConfig struct {
	Store string        `env:"PREDICTIONS_STORE" envDefault:"memory"`
	DSN   string        `env:"PREDICTIONS_DSN"`
	TTL   time.Duration `env:"PREDICTIONS_TTL" envDefault:"15m"`
}

// TeamStatsConfig controls the per-team stats cache. An empty RedisURL keeps it in memory.
type TeamStatsConfig struct {
	RedisURL string        `env:"TEAM_STATS_REDIS_URL"`
	TTL      time.Duration `env:"TEAM_STATS_TTL" envDefault:"24h"`
}

// ClientLimitConfig bounds requests per client on the prediction endpoint.
type ClientLimitConfig struct {
	Limit  int           `env:"CLIENT_RATE_LIMIT" envDefault:"10"`
	Window time.Duration `env:"CLIENT_RATE_WINDOW" envDefault:"60s"`
}

// RefreshConfig schedules cache warm-up and prediction pruning (cron syntax).
type RefreshConfig struct {
	Enabled         bool   `env:"REFRESH_ENABLED" envDefault:"true"`
	PlayersSchedule string `env:"REFRESH_PLAYERS_SCHEDULE" envDefault:"@every 5m"`
	TeamsSchedule   string `env:"REFRESH_TEAMS_SCHEDULE" envDefault:"@every 15m"`
	PruneSchedule   string `env:"REFRESH_PRUNE_SCHEDULE" envDefault:"@every 10m"`
}

// AdminConfig guards the admin routes. An empty token disables them.
type AdminConfig struct {
	Token string `env:"ADMIN_TOKEN"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderMLBStats, ProviderFixture:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	switch c.Predictions.Store {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.Predictions.DSN == "" {
			errs = append(errs, fmt.Errorf("predictions store %q requires PREDICTIONS_DSN", c.Predictions.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown predictions store %q", c.Predictions.Store))
	}
	if c.Upstream.Burst <= 0 || c.Upstream.Interval <= 0 {
		errs = append(errs, errors.New("upstream burst and interval must be positive"))
	}
	if c.Upstream.MaxRetries < 0 || c.Upstream.RateLimitWaits < 0 {
		errs = append(errs, errors.New("upstream retry budgets must not be negative"))
	}
	if c.Cache.Fresh <= 0 || c.Cache.Stale < c.Cache.Fresh {
		errs = append(errs, errors.New("cache stale window must be at least the fresh window"))
	}
	if c.Batch.Size <= 0 || c.Batch.Window <= 0 {
		errs = append(errs, errors.New("batch size and window must be positive"))
	}
	if c.ClientLimit.Limit <= 0 || c.ClientLimit.Window <= 0 {
		errs = append(errs, errors.New("client rate limit and window must be positive"))
	}
	return errors.Join(errs...)
}
