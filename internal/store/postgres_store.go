package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_predictions (
	game_pk          BIGINT PRIMARY KEY,
	game_date        TEXT        NOT NULL,
	home_team_id     BIGINT      NOT NULL,
	away_team_id     BIGINT      NOT NULL,
	predicted_winner BIGINT      NOT NULL,
	expires_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS game_predictions_expires_at ON game_predictions (expires_at);
`

// PostgresStore persists predictions through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, verifies the connection and creates the prediction table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = 5
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Unexpired(ctx context.Context, gamePks []int, now time.Time) ([]PredictionRow, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	if len(gamePks) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(gamePks))
	for i, pk := range gamePks {
		ids[i] = int64(pk)
	}

	rows, err := s.pool.Query(ctx, `
SELECT game_pk, game_date, home_team_id, away_team_id, predicted_winner, expires_at
FROM game_predictions
WHERE expires_at > $1 AND game_pk = ANY($2)
ORDER BY game_pk`, now.UTC(), ids)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var result []PredictionRow
	for rows.Next() {
		var (
			r                                   PredictionRow
			gamePk, home, away, predictedWinner int64
		)
		if err := rows.Scan(&gamePk, &r.GameDate, &home, &away, &predictedWinner, &r.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		r.GamePk, r.HomeTeamID, r.AwayTeamID, r.PredictedWinner = int(gamePk), int(home), int(away), int(predictedWinner)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) Save(ctx context.Context, rows []PredictionRow) error {
	if s == nil || s.pool == nil {
		return ErrNotConfigured
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
INSERT INTO game_predictions (game_pk, game_date, home_team_id, away_team_id, predicted_winner, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (game_pk) DO UPDATE SET
	game_date = EXCLUDED.game_date,
	home_team_id = EXCLUDED.home_team_id,
	away_team_id = EXCLUDED.away_team_id,
	predicted_winner = EXCLUDED.predicted_winner,
	expires_at = EXCLUDED.expires_at`,
			int64(r.GamePk), r.GameDate, int64(r.HomeTeamID), int64(r.AwayTeamID), int64(r.PredictedWinner), r.ExpiresAt.UTC())
		if err != nil {
			return fmt.Errorf("save prediction %d: %w", r.GamePk, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit predictions: %w", err)
	}
	return nil
}

func (s *PostgresStore) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, ErrNotConfigured
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM game_predictions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune predictions: %w", err)
	}
	return tag.RowsAffected(), nil
}
