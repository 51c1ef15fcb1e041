package predictions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/batch"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/llm"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/store"
	"github.com/preston-bernstein/mlb-data-service/internal/timeutil"
)

const (
	DefaultTTL    = 15 * time.Minute
	DefaultWindow = time.Minute
	// ScanDays bounds the forward search for the next date with games.
	ScanDays = 30
	// RangeDays is how many consecutive dates are predicted.
	RangeDays = 2
)

var (
	ErrNoGames              = errors.New("predictions: no games scheduled")
	ErrNoValidGames         = errors.New("predictions: no valid games with active teams")
	ErrInvalidPredictions   = errors.New("predictions: invalid prediction format")
	ErrUnmatchedPredictions = errors.New("predictions: no prediction matched a game")
	ErrGeneratorUnavailable = errors.New("predictions: generator not configured")
)

type Config struct {
	Schedule  providers.ScheduleProvider
	Generator llm.Generator
	Store     store.PredictionStore
	Stats     store.StatsCache
	Batch     *batch.Orchestrator
	TTL       time.Duration
	Window    time.Duration
	Location  *time.Location
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service produces game predictions from the schedule, team stats and a generative model.
type Service struct {
	schedule  providers.ScheduleProvider
	generator llm.Generator
	store     store.PredictionStore
	stats     store.StatsCache
	batch     *batch.Orchestrator
	ttl       time.Duration
	window    time.Duration
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	lastCall time.Time
}

func NewService(cfg Config) *Service {
	s := &Service{
		schedule:  cfg.Schedule,
		generator: cfg.Generator,
		store:     cfg.Store,
		stats:     cfg.Stats,
		batch:     cfg.Batch,
		ttl:       cfg.TTL,
		window:    cfg.Window,
		loc:       cfg.Location,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.stats == nil {
		s.stats = store.NewMemoryStatsCache(store.DefaultStatsTTL)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.window <= 0 {
		s.window = DefaultWindow
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Predict returns predictions for the next dates with games. Answers cached in the store
// are reused when they cover every valid game; otherwise the model is asked, at most
// once per window process-wide.
func (s *Service) Predict(ctx context.Context) ([]games.Prediction, error) {
	if s.schedule == nil {
		return nil, providers.ErrProviderUnavailable
	}

	upcoming, err := s.upcomingGames(ctx)
	if err != nil {
		return nil, err
	}
	if len(upcoming) == 0 {
		return nil, ErrNoGames
	}

	valid := s.validGames(ctx, upcoming)
	if len(valid) == 0 {
		return nil, ErrNoValidGames
	}

	if cached, ok := s.fromStore(ctx, valid); ok {
		return cached, nil
	}

	withStats := s.attachStats(ctx, valid)

	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}
	if err := s.claimWindow(); err != nil {
		return nil, err
	}

	prompt, err := llm.BuildPrompt(withStats)
	if err != nil {
		return nil, err
	}
	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	answers, err := llm.ParseAnswers(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPredictions, err)
	}

	byPk := make(map[int]games.Game, len(valid))
	for _, g := range valid {
		byPk[g.GamePk] = g
	}
	out := make([]games.Prediction, 0, len(answers))
	for _, a := range answers {
		g, ok := byPk[int(a.GamePk)]
		if !ok {
			logging.Warn(s.logger, "prediction for unknown game dropped", "game_pk", int(a.GamePk))
			continue
		}
		out = append(out, games.NewPrediction(g, int(a.PredictedWinner)))
	}
	if len(out) == 0 {
		return nil, ErrUnmatchedPredictions
	}

	s.persist(ctx, out)
	return out, nil
}

// Prune drops expired predictions from the store.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	return s.store.PruneExpired(ctx, s.now())
}

// upcomingGames returns games for today and the next day, or for the first date with
// games within ScanDays and the day after it.
func (s *Service) upcomingGames(ctx context.Context) ([]games.Game, error) {
	today := timeutil.Today(s.now(), s.loc)
	found, err := s.gamesFor(ctx, today)
	if err != nil || len(found) > 0 {
		return found, err
	}

	for i := RangeDays; i < ScanDays; i++ {
		date, err := timeutil.AddDays(today, i)
		if err != nil {
			return nil, err
		}
		list, err := s.schedule.FetchSchedule(ctx, date)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.Warn(s.logger, "schedule lookup failed", logging.FieldDate, date, "error", err)
			continue
		}
		if len(list) > 0 {
			return s.gamesFor(ctx, date)
		}
	}
	return nil, nil
}

func (s *Service) gamesFor(ctx context.Context, start string) ([]games.Game, error) {
	var out []games.Game
	for i := 0; i < RangeDays; i++ {
		date, err := timeutil.AddDays(start, i)
		if err != nil {
			return nil, err
		}
		list, err := s.schedule.FetchSchedule(ctx, date)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.Warn(s.logger, "schedule lookup failed", logging.FieldDate, date, "error", err)
			continue
		}
		out = append(out, list...)
	}
	return out, nil
}

func (s *Service) validGames(ctx context.Context, list []games.Game) []games.Game {
	checked, _ := batch.ProcessAll(ctx, s.batch, list,
		func(ctx context.Context, g games.Game) (bool, error) {
			home, away := g.TeamIDs()
			for _, id := range []int{home, away} {
				ok, err := s.schedule.TeamExists(ctx, id)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
			}
			return true, nil
		},
		func(g games.Game, err error) bool {
			logging.Warn(s.logger, "team validation failed", "game_pk", g.GamePk, "error", err)
			return false
		})

	valid := make([]games.Game, 0, len(list))
	for i, g := range list {
		if checked[i] {
			valid = append(valid, g)
			continue
		}
		logging.Warn(s.logger, "skipping game with invalid team", "game_pk", g.GamePk)
	}
	return valid
}

func (s *Service) fromStore(ctx context.Context, valid []games.Game) ([]games.Prediction, bool) {
	pks := make([]int, len(valid))
	for i, g := range valid {
		pks[i] = g.GamePk
	}
	rows, err := s.store.Unexpired(ctx, pks, s.now())
	if err != nil {
		logging.Warn(s.logger, "prediction store lookup failed", "error", err)
		return nil, false
	}
	if !store.CoversAll(rows, pks) {
		return nil, false
	}

	winners := make(map[int]int, len(rows))
	for _, r := range rows {
		winners[r.GamePk] = r.PredictedWinner
	}
	out := make([]games.Prediction, 0, len(valid))
	for _, g := range valid {
		out = append(out, games.NewPrediction(g, winners[g.GamePk]))
	}
	logging.Debug(s.logger, "predictions served from store", logging.FieldCount, len(out))
	return out, true
}

func (s *Service) attachStats(ctx context.Context, valid []games.Game) []games.GameWithStats {
	seen := make(map[int]struct{})
	var ids []int
	for _, g := range valid {
		home, away := g.TeamIDs()
		for _, id := range []int{home, away} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	groups, _ := batch.ProcessAll(ctx, s.batch, ids, s.teamStats,
		func(id int, err error) []games.StatGroup {
			logging.Warn(s.logger, "team stats unavailable, using defaults", "team_id", id, "error", err)
			return games.DefaultTeamStats()
		})
	byTeam := make(map[int][]games.StatGroup, len(ids))
	for i, id := range ids {
		byTeam[id] = groups[i]
	}

	out := make([]games.GameWithStats, 0, len(valid))
	for _, g := range valid {
		out = append(out, games.GameWithStats{
			GamePk:   g.GamePk,
			GameDate: g.GameDate,
			HomeTeam: games.TeamWithStats{ID: g.Home.ID, Name: g.Home.Name, Stats: byTeam[g.Home.ID]},
			AwayTeam: games.TeamWithStats{ID: g.Away.ID, Name: g.Away.Name, Stats: byTeam[g.Away.ID]},
		})
	}
	return out
}

func (s *Service) teamStats(ctx context.Context, teamID int) ([]games.StatGroup, error) {
	cached, ok, err := s.stats.Get(ctx, teamID)
	if err != nil {
		logging.Warn(s.logger, "team stats cache read failed", "team_id", teamID, "error", err)
	}
	if ok {
		return cached, nil
	}
	groups, err := s.schedule.FetchTeamStats(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.stats.Set(ctx, teamID, groups); err != nil {
		logging.Warn(s.logger, "team stats cache write failed", "team_id", teamID, "error", err)
	}
	return groups, nil
}

// claimWindow allows one model call per window. The claim is taken before the call so
// concurrent requests inside the window are refused.
func (s *Service) claimWindow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.lastCall.IsZero() {
		if elapsed := now.Sub(s.lastCall); elapsed < s.window {
			wait := (s.window - elapsed + time.Second - 1) / time.Second * time.Second
			return &providers.RateLimitError{
				Provider:   "generator",
				StatusCode: http.StatusTooManyRequests,
				RetryAfter: wait,
				Message:    fmt.Sprintf("Please wait %d seconds before requesting new predictions", int(wait/time.Second)),
			}
		}
	}
	s.lastCall = now
	return nil
}

func (s *Service) persist(ctx context.Context, list []games.Prediction) {
	expires := s.now().Add(s.ttl)
	rows := make([]store.PredictionRow, 0, len(list))
	for _, p := range list {
		rows = append(rows, store.PredictionRow{
			GamePk:          p.GamePk,
			GameDate:        p.GameDate,
			HomeTeamID:      p.HomeTeam.ID,
			AwayTeamID:      p.AwayTeam.ID,
			PredictedWinner: p.PredictedWinner,
			ExpiresAt:       expires,
		})
	}
	if err := s.store.Save(ctx, rows); err != nil {
		logging.Warn(s.logger, "persisting predictions failed", "error", err)
	}
}
