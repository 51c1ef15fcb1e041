package testutil

import (
	"strconv"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

// SampleBatter returns a hitter with the given id and home runs.
func SampleBatter(id, homeRuns int) players.Player {
	return players.Player{
		ID:       id,
		Name:     "Batter",
		Position: "RF",
		Team:     teams.NewRef(147, "New York Yankees", "/api/v1/teams/147"),
		Stats:    players.BattingStats(players.Batting{HomeRuns: homeRuns, BattingAverage: ".300"}),
	}
}

// SamplePitcher returns a pitcher with the given id and ERA.
func SamplePitcher(id int, era string) players.Player {
	return players.Player{
		ID:       id,
		Name:     "Pitcher",
		Position: "P",
		Team:     teams.NewRef(111, "Boston Red Sox", "/api/v1/teams/111"),
		Stats:    players.PitchingStats(players.Pitching{EarnedRunAverage: era, Wins: 10}),
	}
}

// SampleTeam returns a team with an id and name.
func SampleTeam(id int, name string) teams.Team {
	return teams.Team{ID: id, Name: name, TeamName: name, ShortName: name}
}

// SampleGame returns a game between two teams on date.
func SampleGame(gamePk int, date string, home, away int) games.Game {
	return games.Game{
		GamePk:   gamePk,
		GameDate: date,
		Home:     teams.NewRef(home, "Home", ""),
		Away:     teams.NewRef(away, "Away", ""),
	}
}

// SampleFollows returns one follow record per player id list.
func SampleFollows(playerIDs ...[]int) []fans.FollowRecord {
	out := make([]fans.FollowRecord, 0, len(playerIDs))
	for i, ids := range playerIDs {
		out = append(out, fans.FollowRecord{UserID: fans.UserID("user-" + strconv.Itoa(i)), FollowedPlayerIDs: ids})
	}
	return out
}
