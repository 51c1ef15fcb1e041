package games

import "github.com/preston-bernstein/mlb-data-service/internal/domain/teams"

// Game is a scheduled matchup on a calendar date (YYYY-MM-DD).
type Game struct {
	GamePk   int       `json:"gamePk"`
	GameDate string    `json:"gameDate"`
	Home     teams.Ref `json:"homeTeam"`
	Away     teams.Ref `json:"awayTeam"`
}

// TeamIDs returns the home and away team ids.
func (g Game) TeamIDs() (int, int) {
	return g.Home.ID, g.Away.ID
}

// StatGroup is one season stats group (pitching or hitting) as published upstream.
type StatGroup struct {
	Type   StatGroupType `json:"type"`
	Splits []StatSplit   `json:"splits"`
}

type StatGroupType struct {
	DisplayName string `json:"displayName"`
}

type StatSplit struct {
	Stat map[string]any `json:"stat"`
}

// DefaultTeamStats is used when a team's stats cannot be fetched.
func DefaultTeamStats() []StatGroup {
	return []StatGroup{
		{Type: StatGroupType{DisplayName: "pitching"}, Splits: []StatSplit{{Stat: map[string]any{}}}},
		{Type: StatGroupType{DisplayName: "hitting"}, Splits: []StatSplit{{Stat: map[string]any{}}}},
	}
}

// TeamWithStats is a side of a matchup handed to the prediction model.
type TeamWithStats struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Stats []StatGroup `json:"stats"`
}

// GameWithStats is one matchup of the prediction prompt.
type GameWithStats struct {
	GamePk   int           `json:"gamePk"`
	GameDate string        `json:"gameDate"`
	HomeTeam TeamWithStats `json:"homeTeam"`
	AwayTeam TeamWithStats `json:"awayTeam"`
}

// TeamSummary is the id/name pair echoed in predictions.
type TeamSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Prediction is the predicted outcome of one game served by /game_predictions.
type Prediction struct {
	GamePk          int         `json:"gamePk"`
	GameDate        string      `json:"gameDate"`
	HomeTeam        TeamSummary `json:"homeTeam"`
	AwayTeam        TeamSummary `json:"awayTeam"`
	PredictedWinner int         `json:"predictedWinner"`
}

// NewPrediction joins a model answer with its game.
func NewPrediction(g Game, winner int) Prediction {
	return Prediction{
		GamePk:          g.GamePk,
		GameDate:        g.GameDate,
		HomeTeam:        TeamSummary{ID: g.Home.ID, Name: g.Home.Name},
		AwayTeam:        TeamSummary{ID: g.Away.ID, Name: g.Away.Name},
		PredictedWinner: winner,
	}
}
