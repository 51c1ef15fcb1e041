package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps prediction rows in a thread-safe map.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[int]PredictionRow
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[int]PredictionRow),
	}
}

func (s *MemoryStore) Unexpired(ctx context.Context, gamePks []int, now time.Time) ([]PredictionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PredictionRow, 0, len(gamePks))
	for _, pk := range gamePks {
		if r, ok := s.rows[pk]; ok && r.ExpiresAt.After(now) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *MemoryStore) Save(ctx context.Context, rows []PredictionRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		s.rows[r.GamePk] = r
	}
	return nil
}

func (s *MemoryStore) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for pk, r := range s.rows {
		if !r.ExpiresAt.After(now) {
			delete(s.rows, pk)
			n++
		}
	}
	return n, nil
}

// List returns every stored row ordered by game.
func (s *MemoryStore) List() []PredictionRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PredictionRow, 0, len(s.rows))
	for _, r := range s.rows {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GamePk < result[j].GamePk })
	return result
}

func (s *MemoryStore) Close() error { return nil }
