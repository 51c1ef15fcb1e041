package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_predictions (
	game_pk          INTEGER PRIMARY KEY,
	game_date        TEXT    NOT NULL,
	home_team_id     INTEGER NOT NULL,
	away_team_id     INTEGER NOT NULL,
	predicted_winner INTEGER NOT NULL,
	expires_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS game_predictions_expires_at ON game_predictions (expires_at);
`

// SQLiteStore persists predictions in a local SQLite file. Expiry is stored as unix millis.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database at path (":memory:" for an in-process store) and
// creates the prediction table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is its own database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Unexpired(ctx context.Context, gamePks []int, now time.Time) ([]PredictionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, ErrNotConfigured
	}
	if len(gamePks) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(gamePks)+1)
	args = append(args, now.UTC().UnixMilli())
	for _, pk := range gamePks {
		args = append(args, pk)
	}
	query := `
SELECT game_pk, game_date, home_team_id, away_team_id, predicted_winner, expires_at
FROM game_predictions
WHERE expires_at > ? AND game_pk IN (` + placeholders(len(gamePks)) + `)
ORDER BY game_pk`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var result []PredictionRow
	for rows.Next() {
		var (
			r       PredictionRow
			expires int64
		)
		if err := rows.Scan(&r.GamePk, &r.GameDate, &r.HomeTeamID, &r.AwayTeamID, &r.PredictedWinner, &expires); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		r.ExpiresAt = time.UnixMilli(expires).UTC()
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rows []PredictionRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return ErrNotConfigured
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
INSERT INTO game_predictions (
	game_pk,
	game_date,
	home_team_id,
	away_team_id,
	predicted_winner,
	expires_at
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (game_pk) DO UPDATE SET
	game_date = excluded.game_date,
	home_team_id = excluded.home_team_id,
	away_team_id = excluded.away_team_id,
	predicted_winner = excluded.predicted_winner,
	expires_at = excluded.expires_at
`,
			r.GamePk,
			r.GameDate,
			r.HomeTeamID,
			r.AwayTeamID,
			r.PredictedWinner,
			r.ExpiresAt.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("save prediction %d: %w", r.GamePk, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit predictions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, ErrNotConfigured
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM game_predictions WHERE expires_at <= ?`, now.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune predictions: %w", err)
	}
	return res.RowsAffected()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
