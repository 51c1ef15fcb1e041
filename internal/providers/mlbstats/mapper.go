package mlbstats

import (
	"strings"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

func mapPerson(p personResponse) players.Player {
	name := strings.TrimSpace(p.NameFirstLast)
	if name == "" {
		name = strings.TrimSpace(p.FullName)
	}
	return players.Player{
		ID:       p.ID,
		Name:     name,
		Position: p.PrimaryPosition.Abbreviation,
		Team:     teams.NewRef(p.CurrentTeam.ID, p.CurrentTeam.Name, p.CurrentTeam.Link),
		Stats:    players.UnknownStats(),
	}
}

func mapHitting(s hittingStat) *players.Batting {
	return &players.Batting{
		HomeRuns:         s.HomeRuns,
		BattingAverage:   s.Avg,
		OnBasePercentage: s.OBP,
		Slugging:         s.SLG,
		Hits:             s.Hits,
		RunsBattedIn:     s.RBI,
		StolenBases:      s.StolenBases,
		Strikeouts:       s.StrikeOuts,
	}
}

func mapPitching(s pitchingStat) *players.Pitching {
	return &players.Pitching{
		EarnedRunAverage:  s.ERA,
		Strikeouts:        s.StrikeOuts,
		Wins:              s.Wins,
		Losses:            s.Losses,
		Saves:             s.Saves,
		InningsPitched:    s.InningsPitched,
		Whip:              s.WHIP,
		StrikeoutsPer9Inn: s.StrikeoutsPer9Inn,
	}
}

// firstSplit returns the first season split, or nil when the player has none.
func firstSplit[T any](resp playerStatsResponse[T]) *T {
	if len(resp.Stats) == 0 || len(resp.Stats[0].Splits) == 0 {
		return nil
	}
	return &resp.Stats[0].Splits[0].Stat
}

func mapTeam(t teamResponse) teams.Team {
	return teams.Team{
		ID:        t.ID,
		Name:      t.Name,
		TeamCode:  t.TeamCode,
		TeamName:  t.TeamName,
		ShortName: t.ShortName,
	}
}

func mapRecord(r teamRecordResponse) teams.Record {
	pct, _ := players.ParseRate(r.WinningPercentage)
	return teams.Record{
		Wins:              r.Wins,
		Losses:            r.Losses,
		WinningPercentage: pct,
		DivisionRank:      r.DivisionRank,
		LeagueRank:        r.LeagueRank,
	}
}

func mapGame(g gameResponse, date string) games.Game {
	return games.Game{
		GamePk:   g.GamePk,
		GameDate: date,
		Home:     teams.NewRef(g.Teams.Home.Team.ID, g.Teams.Home.Team.Name, g.Teams.Home.Team.Link),
		Away:     teams.NewRef(g.Teams.Away.Team.ID, g.Teams.Away.Team.Name, g.Teams.Away.Team.Link),
	}
}
