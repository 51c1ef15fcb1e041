package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by stores opened without a backing connection.
var ErrNotConfigured = errors.New("store: not configured")

// PredictionRow is one persisted prediction. Rows past ExpiresAt are never returned.
type PredictionRow struct {
	GamePk          int
	GameDate        string
	HomeTeamID      int
	AwayTeamID      int
	PredictedWinner int
	ExpiresAt       time.Time
}

// PredictionStore persists generated predictions keyed by game.
type PredictionStore interface {
	// Unexpired returns rows for the given games whose expiry is after now.
	Unexpired(ctx context.Context, gamePks []int, now time.Time) ([]PredictionRow, error)
	// Save upserts rows by game.
	Save(ctx context.Context, rows []PredictionRow) error
	// PruneExpired deletes rows whose expiry is at or before now.
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
	Close() error
}

// CoversAll reports whether rows hold an entry for every game in gamePks.
func CoversAll(rows []PredictionRow, gamePks []int) bool {
	if len(gamePks) == 0 {
		return false
	}
	have := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		have[r.GamePk] = struct{}{}
	}
	for _, pk := range gamePks {
		if _, ok := have[pk]; !ok {
			return false
		}
	}
	return true
}
