package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func TestFetcherReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "mlb-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Provider: "test", UserAgent: "mlb-test/1.0", MaxRetries: 2})
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFetcherRetriesRateLimitWithoutSpendingErrorBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rec := metrics.NewRecorder()
	f := NewFetcher(FetcherConfig{Provider: "test", MaxRetries: 0, RateLimitWaits: 3, Metrics: rec})
	sleeps := &sleepRecorder{}
	f.sleep = sleeps.sleep

	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{DefaultRateLimitDelay}, sleeps.delays)
	assert.Equal(t, 1, rec.RateLimitHits("test"))
	assert.Equal(t, 2, rec.ProviderCalls("test"))
}

func TestFetcherBacksOffExponentiallyThenGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Provider: "test", MaxRetries: 2, Backoff: 100 * time.Millisecond})
	sleeps := &sleepRecorder{}
	f.sleep = sleeps.sleep

	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 3, fetchErr.Attempts)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeps.delays)
}

func TestFetcherGivesUpAfterRateLimitBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Provider: "test", MaxRetries: 2, RateLimitWaits: 3})
	f.sleep = (&sleepRecorder{}).sleep

	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	rl, ok := AsRateLimitError(err)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetcherStopsOnParentCancel(t *testing.T) {
	f := NewFetcher(FetcherConfig{
		Provider:   "test",
		MaxRetries: 5,
		HTTPClient: &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := f.Get(ctx, "http://example.com/slow")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcherTimesOutEachAttempt(t *testing.T) {
	var calls atomic.Int32
	f := NewFetcher(FetcherConfig{
		Provider:   "test",
		Timeout:    10 * time.Millisecond,
		MaxRetries: 1,
		HTTPClient: &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if calls.Add(1) == 1 {
				<-req.Context().Done()
				return nil, req.Context().Err()
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"people":[]}`)),
				Header:     make(http.Header),
			}, nil
		})},
	})
	f.sleep = (&sleepRecorder{}).sleep

	body, err := f.Get(context.Background(), "http://example.com/people")
	require.NoError(t, err)
	assert.JSONEq(t, `{"people":[]}`, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetcherWaitsOnGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gate, _ := newTestGate(1, time.Hour)
	require.True(t, gate.TryAcquire())

	f := NewFetcher(FetcherConfig{Provider: "test", Gate: gate})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcherGetRecordsDropsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\ufeff{\"user_id\":\"a\"}\nnot json\n\n{\"user_id\":\"b\"}\n"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Provider: "test"})
	records, err := f.GetRecords(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFetcherGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"teams":[{"id":147}]}`))
	}))
	defer srv.Close()

	var payload struct {
		Teams []struct {
			ID int `json:"id"`
		} `json:"teams"`
	}
	f := NewFetcher(FetcherConfig{Provider: "test"})
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, &payload))
	require.Len(t, payload.Teams, 1)
	assert.Equal(t, 147, payload.Teams[0].ID)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
}
