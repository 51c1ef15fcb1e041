package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

// StubProvider implements providers.DataProvider from canned data. Err fields force the
// matching call to fail. Schedule is keyed by date.
type StubProvider struct {
	Roster    []players.Player
	Stats     map[int]players.Stats
	Teams     []teams.Team
	Records   map[int]teams.Record
	Schedule  map[string][]games.Game
	Invalid   map[int]bool
	TeamStats map[int][]games.StatGroup

	RosterErr    error
	StatsErr     error
	TeamsErr     error
	StandingsErr error
	ScheduleErr  error
	TeamStatsErr error

	RosterCalls    atomic.Int32
	StatsCalls     atomic.Int32
	TeamsCalls     atomic.Int32
	ScheduleCalls  atomic.Int32
	TeamStatsCalls atomic.Int32

	mu    sync.Mutex
	dates []string
}

func (p *StubProvider) FetchRoster(ctx context.Context) ([]players.Player, error) {
	p.RosterCalls.Add(1)
	if p.RosterErr != nil {
		return nil, p.RosterErr
	}
	out := make([]players.Player, len(p.Roster))
	copy(out, p.Roster)
	return out, nil
}

func (p *StubProvider) FetchPlayerStats(ctx context.Context, pl players.Player) (players.Player, error) {
	p.StatsCalls.Add(1)
	if p.StatsErr != nil {
		return pl, p.StatsErr
	}
	stats, ok := p.Stats[pl.ID]
	if !ok {
		return pl, fmt.Errorf("no stats for player %d", pl.ID)
	}
	pl.Stats = stats
	return pl, nil
}

func (p *StubProvider) FetchTeams(ctx context.Context) ([]teams.Team, error) {
	p.TeamsCalls.Add(1)
	if p.TeamsErr != nil {
		return nil, p.TeamsErr
	}
	return p.Teams, nil
}

func (p *StubProvider) FetchStandings(ctx context.Context) (map[int]teams.Record, error) {
	if p.StandingsErr != nil {
		return nil, p.StandingsErr
	}
	return p.Records, nil
}

func (p *StubProvider) FetchSchedule(ctx context.Context, date string) ([]games.Game, error) {
	p.ScheduleCalls.Add(1)
	p.mu.Lock()
	p.dates = append(p.dates, date)
	p.mu.Unlock()
	if p.ScheduleErr != nil {
		return nil, p.ScheduleErr
	}
	return p.Schedule[date], nil
}

func (p *StubProvider) TeamExists(ctx context.Context, teamID int) (bool, error) {
	return !p.Invalid[teamID], nil
}

func (p *StubProvider) FetchTeamStats(ctx context.Context, teamID int) ([]games.StatGroup, error) {
	p.TeamStatsCalls.Add(1)
	if p.TeamStatsErr != nil {
		return nil, p.TeamStatsErr
	}
	return p.TeamStats[teamID], nil
}

// ScheduleDates returns the dates FetchSchedule was asked for, in call order.
func (p *StubProvider) ScheduleDates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.dates))
	copy(out, p.dates)
	return out
}

// StubFollows implements fandata.Source.
type StubFollows struct {
	Records []fans.FollowRecord
	Err     error
	Calls   atomic.Int32
}

func (s *StubFollows) Load(ctx context.Context) ([]fans.FollowRecord, error) {
	s.Calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}

// StubGenerator implements llm.Generator with a canned reply.
type StubGenerator struct {
	Reply   string
	Err     error
	Prompts []string
	mu      sync.Mutex
}

func (g *StubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.Prompts = append(g.Prompts, prompt)
	g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// Calls returns how many prompts were generated.
func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}
