package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

func countingJob(name string, required bool, err error) (Job, *atomic.Int32) {
	var calls atomic.Int32
	return Job{
		Name:     name,
		Schedule: "@every 1h",
		Required: required,
		Run: func(ctx context.Context) error {
			calls.Add(1)
			return err
		},
	}, &calls
}

func TestPollerWarmsEveryJobOnStart(t *testing.T) {
	players, playerCalls := countingJob("players", true, nil)
	teams, teamCalls := countingJob("teams", false, nil)
	p, err := New([]Job{players, teams}, nil, metrics.NewRecorder())
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, p.Ready, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))

	assert.Equal(t, int32(1), playerCalls.Load())
	assert.Equal(t, int32(1), teamCalls.Load())
	assert.True(t, p.Status()["teams"].IsReady())
}

func TestPollerStartIsIdempotent(t *testing.T) {
	job, calls := countingJob("players", true, nil)
	p, err := New([]Job{job}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollerNotReadyUntilRequiredJobSucceeds(t *testing.T) {
	failing, _ := countingJob("players", true, errors.New("upstream down"))
	optional, _ := countingJob("teams", false, nil)
	p, err := New([]Job{failing, optional}, nil, nil)
	require.NoError(t, err)

	p.RunOnce(context.Background(), failing)
	p.RunOnce(context.Background(), failing)
	p.RunOnce(context.Background(), optional)

	assert.False(t, p.Ready())
	st := p.Status()["players"]
	assert.Equal(t, 2, st.ConsecutiveFailures)
	assert.Equal(t, "upstream down", st.LastError)
	assert.False(t, st.LastAttempt.IsZero())
}

func TestPollerFailureCounterResetsOnSuccess(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	job := Job{Name: "players", Schedule: "@every 5m", Required: true, Run: func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("boom")
		}
		return nil
	}}
	p, err := New([]Job{job}, nil, nil)
	require.NoError(t, err)

	p.RunOnce(context.Background(), job)
	fail.Store(false)
	p.RunOnce(context.Background(), job)

	st := p.Status()["players"]
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Empty(t, st.LastError)
	assert.True(t, p.Ready())
}

func TestPollerWithoutRequiredJobsIsReady(t *testing.T) {
	p, err := New(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, p.Ready())
	require.NoError(t, p.Stop(context.Background()))
}

func TestNewRejectsBadSchedule(t *testing.T) {
	job, _ := countingJob("players", true, nil)
	job.Schedule = "every so often"
	_, err := New([]Job{job}, nil, nil)
	assert.Error(t, err)

	_, err = New([]Job{{Name: "empty", Schedule: "@every 1m"}}, nil, nil)
	assert.Error(t, err)
}

func TestStopHonoursContext(t *testing.T) {
	release := make(chan struct{})
	job := Job{Name: "slow", Schedule: "@every 1h", Run: func(ctx context.Context) error {
		<-release
		return nil
	}}
	p, err := New([]Job{job}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Stop(ctx), context.DeadlineExceeded)
	close(release)
}
