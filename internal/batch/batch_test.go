package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

type result struct {
	id       int
	hasStats bool
}

func TestPlan(t *testing.T) {
	o := New(10, 3, nil, nil)
	assert.Equal(t, Plan{Batches: 3, Windows: 1}, o.Plan(30))
	assert.Equal(t, Plan{Batches: 4, Windows: 2}, o.Plan(31))
	assert.Equal(t, Plan{}, o.Plan(0))
}

func TestNewDefaults(t *testing.T) {
	o := New(0, -1, nil, nil)
	assert.Equal(t, DefaultBatchSize, o.batchSize)
	assert.Equal(t, DefaultWindow, o.window)
}

func TestProcessAllReplacesFailuresAndKeepsOrder(t *testing.T) {
	items := make([]int, 30)
	for i := range items {
		items[i] = i
	}
	rec := metrics.NewRecorder()
	o := New(10, 3, nil, rec)

	out, report := ProcessAll(context.Background(), o, items,
		func(ctx context.Context, id int) (result, error) {
			if id == 17 {
				return result{}, errors.New("upstream 500")
			}
			return result{id: id, hasStats: true}, nil
		},
		func(id int, err error) result { return result{id: id} },
	)

	require.Len(t, out, 30)
	for i, r := range out {
		assert.Equal(t, i, r.id)
		assert.Equal(t, i != 17, r.hasStats, "item %d", i)
	}
	assert.Equal(t, Report{Items: 30, Batches: 3, Windows: 1, Fallbacks: 1}, report)
	assert.Equal(t, 1, rec.BatchFallbacks())
}

func TestProcessAllEveryItemFails(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}
	rec := metrics.NewRecorder()
	o := New(10, 2, nil, rec)

	out, report := ProcessAll(context.Background(), o, items,
		func(ctx context.Context, id int) (result, error) {
			return result{}, errors.New("upstream 503")
		},
		func(id int, err error) result { return result{id: id} },
	)

	require.Len(t, out, len(items))
	for i, r := range out {
		assert.Equal(t, i, r.id)
		assert.False(t, r.hasStats)
	}
	assert.Equal(t, Report{Items: 25, Batches: 3, Windows: 2, Fallbacks: 25}, report)
	assert.Equal(t, 25, rec.BatchFallbacks())
}

func TestProcessAllFinishesWindowBeforeNext(t *testing.T) {
	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}
	o := New(2, 2, nil, nil)

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	done := make([]atomic.Bool, len(items))
	_, report := ProcessAll(context.Background(), o, items,
		func(ctx context.Context, i int) (int, error) {
			mu.Lock()
			inFlight++
			peak = max(peak, inFlight)
			mu.Unlock()

			// everything from the previous window must be finished
			windowStart := (i / 4) * 4
			for j := 0; j < windowStart; j++ {
				if !done[j].Load() {
					return 0, fmt.Errorf("item %d started before %d finished", i, j)
				}
			}
			time.Sleep(5 * time.Millisecond)
			done[i].Store(true)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return i, nil
		},
		func(i int, err error) int { return -1 },
	)

	assert.Equal(t, 0, report.Fallbacks)
	assert.Equal(t, 3, report.Windows)
	assert.LessOrEqual(t, peak, 4)
}

func TestProcessAllFallsBackAfterCancel(t *testing.T) {
	items := []int{1, 2, 3, 4}
	o := New(1, 1, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	out, report := ProcessAll(ctx, o, items,
		func(ctx context.Context, i int) (int, error) {
			if i == 2 {
				cancel()
			}
			return i * 10, nil
		},
		func(i int, err error) int {
			assert.ErrorIs(t, err, context.Canceled)
			return -i
		},
	)

	assert.Equal(t, []int{10, 20, -3, -4}, out)
	assert.Equal(t, 2, report.Fallbacks)
}

func TestProcessAllEmpty(t *testing.T) {
	out, report := ProcessAll(context.Background(), nil, []string{},
		func(ctx context.Context, s string) (string, error) { return s, nil },
		func(s string, err error) string { return s },
	)
	assert.Empty(t, out)
	assert.Equal(t, Report{}, report)
}
