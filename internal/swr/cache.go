package swr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

const (
	DefaultFresh       = 5 * time.Minute
	DefaultStale       = 30 * time.Minute
	DefaultLoadTimeout = 10 * time.Minute

	loadKey = "load"
)

// Mode reports how a Get was answered.
type Mode string

const (
	ModeFresh    Mode = "fresh"
	ModeStale    Mode = "stale"
	ModeLoaded   Mode = "loaded"
	ModeFallback Mode = "fallback"
	modeError    Mode = "error"
)

// Entry is an immutable snapshot. It is replaced as a whole, never mutated.
type Entry[T any] struct {
	Timestamp time.Time
	Data      []T
}

// Result is what Get hands back. Data is shared with the cache and must not be modified.
type Result[T any] struct {
	Data []T
	Mode Mode
	Age  time.Duration
}

// Loader produces a fresh data set.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Config tunes a Cache. Zero durations use the defaults.
type Config struct {
	Name        string
	Fresh       time.Duration
	Stale       time.Duration
	LoadTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
	Now         func() time.Time
}

// Cache is a single-slot stale-while-revalidate cache.
//
// Entries younger than Fresh are served as is. Entries younger than Stale are served
// while one background load refreshes them. Anything older, or an empty cache, loads
// synchronously. All loads share one in-flight call.
type Cache[T any] struct {
	cfg    Config
	loader Loader[T]
	now    func() time.Time

	mu           sync.Mutex
	entry        *Entry[T]
	revalidating bool

	group      singleflight.Group
	background sync.WaitGroup
}

func New[T any](cfg Config, loader Loader[T]) *Cache[T] {
	if cfg.Fresh <= 0 {
		cfg.Fresh = DefaultFresh
	}
	if cfg.Stale <= 0 {
		cfg.Stale = DefaultStale
	}
	if cfg.Stale < cfg.Fresh {
		cfg.Stale = cfg.Fresh
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Name == "" {
		cfg.Name = "cache"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{cfg: cfg, loader: loader, now: now}
}

// Get returns cached data according to its age, loading when needed. When a synchronous
// load fails and an earlier entry exists, that entry is returned with ModeFallback and a
// nil error.
func (c *Cache[T]) Get(ctx context.Context) (Result[T], error) {
	c.mu.Lock()
	entry := c.entry
	if entry != nil {
		age := c.now().Sub(entry.Timestamp)
		if age < c.cfg.Fresh {
			c.mu.Unlock()
			return c.answer(entry.Data, ModeFresh, age), nil
		}
		if age < c.cfg.Stale {
			if !c.revalidating {
				c.revalidating = true
				c.background.Add(1)
				go c.revalidate()
			}
			c.mu.Unlock()
			return c.answer(entry.Data, ModeStale, age), nil
		}
	}
	c.mu.Unlock()

	loaded, err := c.load(ctx)
	if err != nil {
		if last, ok := c.Peek(); ok {
			logging.Warn(c.cfg.Logger, "cache load failed, serving last known data",
				logging.FieldCache, c.cfg.Name,
				"error", err,
			)
			return c.answer(last.Data, ModeFallback, c.now().Sub(last.Timestamp)), nil
		}
		c.cfg.Metrics.RecordCacheLookup(c.cfg.Name, string(modeError))
		return Result[T]{}, err
	}
	if !loaded.replaced {
		return c.answer(loaded.entry.Data, ModeFallback, c.now().Sub(loaded.entry.Timestamp)), nil
	}
	return c.answer(loaded.entry.Data, ModeLoaded, 0), nil
}

// Refresh forces a load, joining one already in flight.
func (c *Cache[T]) Refresh(ctx context.Context) error {
	_, err := c.load(ctx)
	return err
}

// Peek returns the current entry without loading.
func (c *Cache[T]) Peek() (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return Entry[T]{}, false
	}
	return *c.entry, true
}

// Revalidating reports whether a background refresh is running.
func (c *Cache[T]) Revalidating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revalidating
}

// Wait blocks until background revalidations have finished.
func (c *Cache[T]) Wait() {
	c.background.Wait()
}

type loadResult[T any] struct {
	entry    *Entry[T]
	replaced bool
}

// load runs the loader once for all concurrent callers. The shared call is detached
// from any caller's cancellation and bounded by LoadTimeout instead.
func (c *Cache[T]) load(ctx context.Context) (loadResult[T], error) {
	ch := c.group.DoChan(loadKey, func() (any, error) {
		return c.doLoad(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return loadResult[T]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return loadResult[T]{}, res.Err
		}
		return res.Val.(loadResult[T]), nil
	}
}

func (c *Cache[T]) doLoad(ctx context.Context) (loadResult[T], error) {
	loadCtx, cancel := context.WithTimeout(ctx, c.cfg.LoadTimeout)
	defer cancel()

	started := c.now()
	data, err := c.loader(loadCtx)
	if err != nil {
		return loadResult[T]{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(data) == 0 && c.entry != nil && len(c.entry.Data) > 0 {
		logging.Warn(c.cfg.Logger, "load returned no records, keeping previous entry",
			logging.FieldCache, c.cfg.Name,
			logging.FieldCount, len(c.entry.Data),
		)
		return loadResult[T]{entry: c.entry}, nil
	}
	c.entry = &Entry[T]{Timestamp: started, Data: data}
	logging.Debug(c.cfg.Logger, "cache entry replaced",
		logging.FieldCache, c.cfg.Name,
		logging.FieldCount, len(data),
	)
	return loadResult[T]{entry: c.entry, replaced: true}, nil
}

func (c *Cache[T]) revalidate() {
	defer c.background.Done()

	start := time.Now()
	_, err := c.load(context.Background())

	c.mu.Lock()
	c.revalidating = false
	c.mu.Unlock()

	c.cfg.Metrics.RecordRevalidation(c.cfg.Name, time.Since(start), err)
	if err != nil {
		logging.Warn(c.cfg.Logger, "background revalidation failed", logging.FieldCache, c.cfg.Name, "error", err)
	}
}

func (c *Cache[T]) answer(data []T, mode Mode, age time.Duration) Result[T] {
	c.cfg.Metrics.RecordCacheLookup(c.cfg.Name, string(mode))
	return Result[T]{Data: data, Mode: mode, Age: age}
}
