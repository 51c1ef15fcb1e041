package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/mlb-data-service/internal/providers"
)

const completion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 0,
  "model": "gemini-1.5-flash",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "[{\"gamePk\": 1, \"predictedWinner\": 147}]"}}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Model: "gemini-1.5-flash"})
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestGenerateReturnsContent(t *testing.T) {
	c, waits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	})

	text, err := c.Generate(context.Background(), "predict")
	require.NoError(t, err)
	assert.Contains(t, text, `"predictedWinner": 147`)
	assert.Empty(t, *waits)
}

func TestGenerateRetriesRateLimitWithDoublingWaits(t *testing.T) {
	var calls atomic.Int32
	c, waits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		_, _ = w.Write([]byte(completion))
	})

	_, err := c.Generate(context.Background(), "predict")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestGenerateGivesUpWithRateLimitError(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})

	_, err := c.Generate(context.Background(), "predict")
	rlErr, ok := providers.AsRateLimitError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, rlErr.StatusCode)
	assert.Equal(t, int32(DefaultMaxAttempts), calls.Load())
}

func TestGenerateDoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	})

	_, err := c.Generate(context.Background(), "predict")
	require.Error(t, err)
	_, isRateLimit := providers.AsRateLimitError(err)
	assert.False(t, isRateLimit)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, DefaultMaxAttempts, c.maxAttempts)
	assert.Equal(t, DefaultBaseDelay, c.baseDelay)
}
