package players

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/mlb-data-service/internal/batch"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/fandata"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/ranking"
	"github.com/preston-bernstein/mlb-data-service/internal/swr"
)

const (
	// DefaultStatsCallsPerPlayer matches the hitting and pitching requests mlbstats makes per player.
	DefaultStatsCallsPerPlayer = 2
	statsBudgetMargin          = 30 * time.Second
)

// Config wires the player aggregation. Gate is the outbound rate gate the provider
// draws from; when set, the stats pass gets at least the time the gate needs to grant
// StatsCallsPerPlayer permits for every player.
type Config struct {
	Provider            providers.RosterProvider
	Fans                fandata.Source
	Batch               *batch.Orchestrator
	Gate                *providers.Gate
	StatsCallsPerPlayer int
	Cache               swr.Config
	Logger              *slog.Logger
}

// Service serves the ranked player list through a stale-while-revalidate cache.
type Service struct {
	provider providers.RosterProvider
	fans     fandata.Source
	batch    *batch.Orchestrator
	gate     *providers.Gate
	perCall  int
	cache    *swr.Cache[players.Player]
	logger   *slog.Logger
}

// NewService constructs a Service. A nil provider makes every load fail with
// ErrProviderUnavailable.
func NewService(cfg Config) *Service {
	s := &Service{
		provider: cfg.Provider,
		fans:     cfg.Fans,
		batch:    cfg.Batch,
		gate:     cfg.Gate,
		perCall:  cfg.StatsCallsPerPlayer,
		logger:   cfg.Logger,
	}
	if s.perCall <= 0 {
		s.perCall = DefaultStatsCallsPerPlayer
	}
	if cfg.Cache.Name == "" {
		cfg.Cache.Name = "players"
	}
	if cfg.Cache.Logger == nil {
		cfg.Cache.Logger = cfg.Logger
	}
	s.cache = swr.New(cfg.Cache, s.load)
	return s
}

// Players returns the cached player list, ranked by followers. The data is shared and
// must not be modified.
func (s *Service) Players(ctx context.Context) (swr.Result[players.Player], error) {
	return s.cache.Get(ctx)
}

// Refresh forces a reload of the player list.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Refresh(ctx)
}

// Warm reports whether the cache holds any data.
func (s *Service) Warm() bool {
	_, ok := s.cache.Peek()
	return ok
}

// Wait blocks until background revalidations finish.
func (s *Service) Wait() {
	s.cache.Wait()
}

func (s *Service) load(ctx context.Context) ([]players.Player, error) {
	if s.provider == nil {
		return nil, providers.ErrProviderUnavailable
	}

	var (
		roster  []players.Player
		records []fans.FollowRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = s.provider.FetchRoster(gctx)
		if err != nil {
			return fmt.Errorf("fetch roster: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		records = fandata.LoadOptional(gctx, s.fans, s.logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statsCtx, cancel := s.statsContext(ctx, len(roster))
	defer cancel()

	detailed, report := batch.ProcessAll(statsCtx, s.batch, roster, s.provider.FetchPlayerStats,
		func(p players.Player, err error) players.Player {
			logging.Debug(s.logger, "player stats unavailable", "player_id", p.ID, "error", err)
			return players.Fallback(p)
		})

	idx := ranking.BuildIndex(records, ranking.Players)
	ranked := ranking.Rank(ranking.WithPlayerFollowers(detailed, idx), players.SortFollowers.Less(), 0)

	logging.Info(s.logger, "players aggregated",
		logging.FieldCount, len(ranked),
		"fallbacks", report.Fallbacks,
		"follow_records", len(records),
	)
	return ranked, nil
}

// statsContext extends ctx when its deadline is earlier than the gate can grant every
// stats call for n players.
func (s *Service) statsContext(ctx context.Context, n int) (context.Context, context.CancelFunc) {
	if s.gate == nil || n == 0 {
		return ctx, func() {}
	}
	need := s.gate.Budget(n * s.perCall)
	need += need/4 + statsBudgetMargin

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) >= need {
		return ctx, func() {}
	}
	logging.Info(s.logger, "extending player stats deadline",
		logging.FieldCount, n,
		"budget_ms", need.Milliseconds(),
	)
	return context.WithTimeout(context.WithoutCancel(ctx), need)
}
