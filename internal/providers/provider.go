package providers

import (
	"context"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

// RosterProvider fetches the active player list and per-player season stats.
type RosterProvider interface {
	FetchRoster(ctx context.Context) ([]players.Player, error)
	// FetchPlayerStats returns p with its Stats resolved.
	FetchPlayerStats(ctx context.Context, p players.Player) (players.Player, error)
}

// TeamProvider fetches teams and their win/loss records.
type TeamProvider interface {
	FetchTeams(ctx context.Context) ([]teams.Team, error)
	// FetchStandings returns records keyed by team id.
	FetchStandings(ctx context.Context) (map[int]teams.Record, error)
}

// ScheduleProvider fetches games and the data needed to predict them.
// The date parameter is a YYYY-MM-DD string.
type ScheduleProvider interface {
	FetchSchedule(ctx context.Context, date string) ([]games.Game, error)
	TeamExists(ctx context.Context, teamID int) (bool, error)
	FetchTeamStats(ctx context.Context, teamID int) ([]games.StatGroup, error)
}

// DataProvider combines all provider capabilities.
type DataProvider interface {
	RosterProvider
	TeamProvider
	ScheduleProvider
}
