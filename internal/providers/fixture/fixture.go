package fixture

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/timeutil"
)

// Provider returns a static league useful for local runs and tests.
type Provider struct {
	now func() time.Time
}

// New creates a fixture provider with a time source.
func New() *Provider {
	return &Provider{
		now: time.Now,
	}
}

var fixtureTeams = []teams.Team{
	{ID: 147, Name: "New York Yankees", TeamCode: "nya", TeamName: "Yankees", ShortName: "NY Yankees"},
	{ID: 111, Name: "Boston Red Sox", TeamCode: "bos", TeamName: "Red Sox", ShortName: "Boston"},
	{ID: 119, Name: "Los Angeles Dodgers", TeamCode: "lan", TeamName: "Dodgers", ShortName: "LA Dodgers"},
	{ID: 137, Name: "San Francisco Giants", TeamCode: "sfn", TeamName: "Giants", ShortName: "San Francisco"},
}

var fixtureRecords = map[int]teams.Record{
	147: {Wins: 94, Losses: 68, WinningPercentage: 0.580, DivisionRank: "1", LeagueRank: "1"},
	111: {Wins: 81, Losses: 81, WinningPercentage: 0.500, DivisionRank: "3", LeagueRank: "8"},
	119: {Wins: 98, Losses: 64, WinningPercentage: 0.605, DivisionRank: "1", LeagueRank: "1"},
}

var fixturePlayers = []struct {
	player   players.Player
	batting  *players.Batting
	pitching *players.Pitching
}{
	{
		player:  players.Player{ID: 592450, Name: "Aaron Judge", Position: "RF", Team: ref(147)},
		batting: &players.Batting{HomeRuns: 58, BattingAverage: ".322", OnBasePercentage: ".458", Slugging: ".701", Hits: 180, RunsBattedIn: 144, StolenBases: 10, Strikeouts: 171},
	},
	{
		player:  players.Player{ID: 660271, Name: "Shohei Ohtani", Position: "TWP", Team: ref(119)},
		batting: &players.Batting{HomeRuns: 54, BattingAverage: ".310", OnBasePercentage: ".390", Slugging: ".646", Hits: 197, RunsBattedIn: 130, StolenBases: 59, Strikeouts: 162},
	},
	{
		player:   players.Player{ID: 543037, Name: "Gerrit Cole", Position: "P", Team: ref(147)},
		pitching: &players.Pitching{EarnedRunAverage: "3.41", Strikeouts: 99, Wins: 8, Losses: 5, InningsPitched: "95.0", Whip: "1.13", StrikeoutsPer9Inn: "9.38"},
	},
	{
		player:  players.Player{ID: 646240, Name: "Rafael Devers", Position: "3B", Team: ref(111)},
		batting: &players.Batting{HomeRuns: 28, BattingAverage: ".272", OnBasePercentage: ".354", Slugging: ".516", Hits: 145, RunsBattedIn: 83, StolenBases: 1, Strikeouts: 149},
	},
	{
		player:   players.Player{ID: 657277, Name: "Logan Webb", Position: "P", Team: ref(137)},
		pitching: &players.Pitching{EarnedRunAverage: "3.47", Strikeouts: 172, Wins: 13, Losses: 10, InningsPitched: "204.2", Whip: "1.24", StrikeoutsPer9Inn: "7.57"},
	},
}

func ref(teamID int) teams.Ref {
	for _, t := range fixtureTeams {
		if t.ID == teamID {
			return teams.NewRef(t.ID, t.Name, "/api/v1/teams/"+strconv.Itoa(t.ID))
		}
	}
	return teams.NewRef(teamID, "", "")
}

// FetchRoster returns the fixture players without stats.
func (p *Provider) FetchRoster(ctx context.Context) ([]players.Player, error) {
	_ = ctx
	out := make([]players.Player, 0, len(fixturePlayers))
	for _, fp := range fixturePlayers {
		pl := fp.player
		pl.Stats = players.UnknownStats()
		out = append(out, pl)
	}
	return out, nil
}

// FetchPlayerStats resolves stats for a fixture player.
func (p *Provider) FetchPlayerStats(ctx context.Context, pl players.Player) (players.Player, error) {
	_ = ctx
	for _, fp := range fixturePlayers {
		if fp.player.ID == pl.ID {
			pl.Stats = players.ResolveStats(pl.Position, fp.batting, fp.pitching)
			return pl, nil
		}
	}
	return pl, fmt.Errorf("fixture: no stats for player %d", pl.ID)
}

// FetchTeams returns the fixture clubs.
func (p *Provider) FetchTeams(ctx context.Context) ([]teams.Team, error) {
	_ = ctx
	out := make([]teams.Team, len(fixtureTeams))
	copy(out, fixtureTeams)
	return out, nil
}

// FetchStandings returns records for all but one fixture club.
func (p *Provider) FetchStandings(ctx context.Context) (map[int]teams.Record, error) {
	_ = ctx
	out := make(map[int]teams.Record, len(fixtureRecords))
	for id, rec := range fixtureRecords {
		out[id] = rec
	}
	return out, nil
}

// FetchSchedule returns two deterministic games on any valid date.
func (p *Provider) FetchSchedule(ctx context.Context, date string) ([]games.Game, error) {
	_ = ctx
	if strings.TrimSpace(date) == "" {
		date = timeutil.Today(p.now(), time.UTC)
	}
	parsed, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	base := parsed.YearDay() * 10
	return []games.Game{
		{GamePk: 700000 + base + 1, GameDate: date, Home: ref(147), Away: ref(111)},
		{GamePk: 700000 + base + 2, GameDate: date, Home: ref(119), Away: ref(137)},
	}, nil
}

// TeamExists reports whether teamID is one of the fixture clubs.
func (p *Provider) TeamExists(ctx context.Context, teamID int) (bool, error) {
	_ = ctx
	for _, t := range fixtureTeams {
		if t.ID == teamID {
			return true, nil
		}
	}
	return false, nil
}

// FetchTeamStats returns a small pitching/hitting summary derived from the record.
func (p *Provider) FetchTeamStats(ctx context.Context, teamID int) ([]games.StatGroup, error) {
	_ = ctx
	rec := fixtureRecords[teamID]
	return []games.StatGroup{
		{Type: games.StatGroupType{DisplayName: "pitching"}, Splits: []games.StatSplit{{Stat: map[string]any{"wins": rec.Wins, "losses": rec.Losses}}}},
		{Type: games.StatGroupType{DisplayName: "hitting"}, Splits: []games.StatSplit{{Stat: map[string]any{"winningPercentage": rec.WinningPercentage}}}},
	}, nil
}
