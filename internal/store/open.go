package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/config"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
)

// OpenPredictions builds the prediction store named by kind.
func OpenPredictions(ctx context.Context, kind, dsn string) (PredictionStore, error) {
	switch kind {
	case "", config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		return OpenSQLite(dsn)
	case config.StorePostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("store: unknown prediction store %q", kind)
	}
}

// OpenStatsCache returns a Redis cache when redisURL is set and reachable, memory otherwise.
func OpenStatsCache(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) StatsCache {
	if redisURL == "" {
		return NewMemoryStatsCache(ttl)
	}
	c, err := NewRedisStatsCache(ctx, redisURL, ttl)
	if err != nil {
		logging.Warn(logger, "team stats redis unavailable, using memory cache", "error", err)
		return NewMemoryStatsCache(ttl)
	}
	return c
}
