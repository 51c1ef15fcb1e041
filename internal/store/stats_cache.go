package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
)

// DefaultStatsTTL bounds how long a team's season stats are reused.
const DefaultStatsTTL = 24 * time.Hour

const statsKeyPrefix = "mlb:team-stats:"

var statsJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// StatsCache is a keyed TTL cache of per-team season stats.
type StatsCache interface {
	// Get returns the cached groups for teamID and whether they were present.
	Get(ctx context.Context, teamID int) ([]games.StatGroup, bool, error)
	Set(ctx context.Context, teamID int, groups []games.StatGroup) error
}

type statsEntry struct {
	groups  []games.StatGroup
	expires time.Time
}

// MemoryStatsCache keeps team stats in process memory.
type MemoryStatsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int]statsEntry
	now     func() time.Time
}

func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &MemoryStatsCache{ttl: ttl, entries: make(map[int]statsEntry), now: time.Now}
}

// WithClock overrides the time source.
func (c *MemoryStatsCache) WithClock(now func() time.Time) *MemoryStatsCache {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *MemoryStatsCache) Get(_ context.Context, teamID int) ([]games.StatGroup, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[teamID]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, teamID)
		return nil, false, nil
	}
	return e.groups, true, nil
}

func (c *MemoryStatsCache) Set(_ context.Context, teamID int, groups []games.StatGroup) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[teamID] = statsEntry{groups: groups, expires: c.now().Add(c.ttl)}
	return nil
}

// RedisStatsCache shares team stats across replicas through Redis key expiry.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache parses a redis:// URL and pings the server.
func NewRedisStatsCache(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStatsCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStatsCacheWithClient(client, ttl), nil
}

func NewRedisStatsCacheWithClient(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &RedisStatsCache{client: client, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context, teamID int) ([]games.StatGroup, bool, error) {
	raw, err := c.client.Get(ctx, statsKey(teamID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var groups []games.StatGroup
	if err := statsJSON.Unmarshal(raw, &groups); err != nil {
		return nil, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return groups, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, teamID int, groups []games.StatGroup) error {
	raw, err := statsJSON.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(teamID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

func statsKey(teamID int) string {
	return statsKeyPrefix + strconv.Itoa(teamID)
}
