package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorderTracksProviderAttemptsAndErrors(t *testing.T) {
	rec := NewRecorder()
	rec.RecordProviderAttempt("mlbstats", 10*time.Millisecond, nil)
	rec.RecordProviderAttempt("mlbstats", 15*time.Millisecond, errors.New("boom"))

	if got := rec.ProviderCalls("mlbstats"); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
	if got := rec.ProviderErrors("mlbstats"); got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
	if got := rec.LastCallLatency("mlbstats"); got != 15*time.Millisecond {
		t.Fatalf("expected last latency to be 15ms, got %s", got)
	}

	snap := rec.Snapshot("mlbstats")
	if snap.Calls != 2 || snap.Errors != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRecorderTracksRateLimits(t *testing.T) {
	rec := NewRecorder()
	rec.RecordRateLimit("mlbstats", 5*time.Second)
	rec.RecordRateLimit("mlbstats", 0)

	if got := rec.RateLimitHits("mlbstats"); got != 2 {
		t.Fatalf("expected 2 rate limit hits, got %d", got)
	}
	if got := rec.LastRetryAfter("mlbstats"); got != 5*time.Second {
		t.Fatalf("expected last retry-after to be 5s, got %s", got)
	}
}

func TestRecorderTracksGateAndDedup(t *testing.T) {
	rec := NewRecorder()
	rec.RecordGateDenied("mlbstats")
	rec.RecordDedup("mlbstats", true)
	rec.RecordDedup("mlbstats", false)

	snap := rec.Snapshot("mlbstats")
	assert.Equal(t, 1, snap.GateDenials)
	assert.Equal(t, 1, snap.DedupShared)
}

func TestRecorderTracksCacheLookups(t *testing.T) {
	rec := NewRecorder()
	rec.RecordCacheLookup("players", "fresh")
	rec.RecordCacheLookup("players", "fresh")
	rec.RecordCacheLookup("players", "stale")
	rec.RecordRevalidation("players", time.Millisecond, nil)
	rec.RecordRevalidation("players", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2, rec.CacheLookups("players", "fresh"))
	assert.Equal(t, 1, rec.CacheLookups("players", "stale"))
	assert.Equal(t, 0, rec.CacheLookups("teams", "fresh"))

	total, failed := rec.Revalidations("players")
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
}

func TestRecorderTracksBatchFallbacks(t *testing.T) {
	rec := NewRecorder()
	rec.RecordBatchFallbacks(3)
	rec.RecordBatchFallbacks(0)
	rec.RecordBatchFallbacks(2)

	assert.Equal(t, 5, rec.BatchFallbacks())
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.RecordProviderAttempt("mlbstats", time.Millisecond, nil)
	rec.RecordCacheLookup("players", "fresh")
	rec.RecordBatchFallbacks(1)
	rec.RecordWarmCycle("players", time.Millisecond, nil)

	assert.Equal(t, 0, rec.ProviderCalls("mlbstats"))
	assert.Equal(t, 0, rec.CacheLookups("players", "fresh"))
	assert.Equal(t, 0, rec.BatchFallbacks())
}
