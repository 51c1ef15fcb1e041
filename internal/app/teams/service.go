package teams

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/fandata"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/ranking"
	"github.com/preston-bernstein/mlb-data-service/internal/swr"
)

type Config struct {
	Provider providers.TeamProvider
	Fans     fandata.Source
	Cache    swr.Config
	Logger   *slog.Logger
}

// Service serves team standings ranked by winning percentage.
type Service struct {
	provider providers.TeamProvider
	fans     fandata.Source
	cache    *swr.Cache[teams.Standing]
	logger   *slog.Logger
}

func NewService(cfg Config) *Service {
	s := &Service{
		provider: cfg.Provider,
		fans:     cfg.Fans,
		logger:   cfg.Logger,
	}
	if cfg.Cache.Name == "" {
		cfg.Cache.Name = "teams"
	}
	if cfg.Cache.Logger == nil {
		cfg.Cache.Logger = cfg.Logger
	}
	s.cache = swr.New(cfg.Cache, s.load)
	return s
}

// Standings always returns a slice. Failures without cached data yield an empty one.
func (s *Service) Standings(ctx context.Context) []teams.Standing {
	res, err := s.cache.Get(ctx)
	if err != nil {
		logging.Warn(s.logger, "team standings unavailable", "error", err)
		return []teams.Standing{}
	}
	if res.Data == nil {
		return []teams.Standing{}
	}
	return res.Data
}

// Refresh forces a reload of the standings.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Refresh(ctx)
}

// Wait blocks until background revalidations finish.
func (s *Service) Wait() {
	s.cache.Wait()
}

func (s *Service) load(ctx context.Context) ([]teams.Standing, error) {
	if s.provider == nil {
		return nil, providers.ErrProviderUnavailable
	}

	var (
		list    []teams.Team
		records map[int]teams.Record
		follows []fans.FollowRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.provider.FetchTeams(gctx)
		if err != nil {
			return fmt.Errorf("fetch teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.provider.FetchStandings(gctx)
		if err != nil {
			logging.Warn(s.logger, "standings unavailable, using empty records", "error", err)
			records = nil
		}
		return nil
	})
	g.Go(func() error {
		follows = fandata.LoadOptional(gctx, s.fans, s.logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	standings := make([]teams.Standing, 0, len(list))
	for _, t := range list {
		var rec *teams.Record
		if r, ok := records[t.ID]; ok {
			rec = &r
		}
		standings = append(standings, teams.NewStanding(t, rec))
	}
	idx := ranking.BuildIndex(follows, ranking.Teams)
	ranked := ranking.Rank(ranking.WithTeamFollowers(standings, idx), ranking.ByWinningPercentage, 0)

	logging.Info(s.logger, "team standings aggregated", logging.FieldCount, len(ranked))
	return ranked, nil
}
