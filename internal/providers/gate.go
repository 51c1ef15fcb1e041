package providers

import (
	"context"
	"sync"
	"time"

	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

const (
	defaultGateBurst     = 25
	defaultGateInterval  = time.Second
	defaultGatePollDelay = time.Second
)

// Gate is a fixed-window token bucket: every interval the token count resets to burst.
// Waiters poll; there is no queue and no fairness.
type Gate struct {
	mu         sync.Mutex
	burst      int
	interval   time.Duration
	pollDelay  time.Duration
	tokens     int
	lastRefill time.Time
	now        func() time.Time

	metrics  *metrics.Recorder
	provider string
}

// NewGate returns a Gate granting at most burst permits per interval. Non-positive values use defaults.
func NewGate(burst int, interval time.Duration) *Gate {
	if burst <= 0 {
		burst = defaultGateBurst
	}
	if interval <= 0 {
		interval = defaultGateInterval
	}
	return &Gate{
		burst:     burst,
		interval:  interval,
		pollDelay: min(defaultGatePollDelay, interval),
		now:       time.Now,
	}
}

// Budget is how long a caller should allow for calls permits to be granted:
// one interval per full or partial window, plus one more for the window in progress.
// A nil Gate needs no time.
func (g *Gate) Budget(calls int) time.Duration {
	if g == nil || calls <= 0 {
		return 0
	}
	windows := (calls + g.burst - 1) / g.burst
	return time.Duration(windows+1) * g.interval
}

// WithMetrics reports denied permits to the recorder under the provider name.
func (g *Gate) WithMetrics(rec *metrics.Recorder, provider string) *Gate {
	g.metrics = rec
	g.provider = provider
	return g
}

// TryAcquire grants a permit if one is left in the current window.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.lastRefill) >= g.interval {
		g.tokens = g.burst
		g.lastRefill = now
	}
	if g.tokens > 0 {
		g.tokens--
		return true
	}
	return false
}

// Wait polls TryAcquire until a permit is granted or ctx ends. A nil Gate never blocks.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if g.TryAcquire() {
			return nil
		}
		g.metrics.RecordGateDenied(g.provider)

		timer := time.NewTimer(g.pollDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
