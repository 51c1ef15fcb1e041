package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/preston-bernstein/mlb-data-service/internal/http/requestutil"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
)

const (
	DefaultClientLimit  = 10
	DefaultClientWindow = time.Minute

	// idleAfter is how long an unused client limiter is kept.
	idleAfter = 10 * time.Minute
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientLimiter allows each client IP limit requests per window, refilled evenly.
type ClientLimiter struct {
	limit  int
	window time.Duration
	every  rate.Limit
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientEntry
	lastSweep time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(limit int, window time.Duration, logger *slog.Logger) *ClientLimiter {
	if limit <= 0 {
		limit = DefaultClientLimit
	}
	if window <= 0 {
		window = DefaultClientWindow
	}
	return &ClientLimiter{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*clientEntry),
	}
}

// Allow reports whether key may proceed and, if not, how long until it may.
func (l *ClientLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	e, ok := l.clients[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.every, l.limit)}
		l.clients[key] = e
	}
	e.lastSeen = now

	res := e.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, l.window
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *ClientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for key, e := range l.clients {
		if now.Sub(e.lastSeen) > idleAfter {
			delete(l.clients, key)
		}
	}
}

// Middleware answers 429 with Retry-After once a client exceeds its budget.
func (l *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(requestutil.ClientIP(r))
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		logging.Warn(logging.FromContext(r.Context(), l.logger), "client rate limited",
			"client_ip", requestutil.ClientIP(r),
			"retry_after_ms", wait.Milliseconds(),
		)
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(wait)))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = jsonAPI.NewEncoder(w).Encode(map[string]string{"error": "Too Many Requests"})
	})
}

// RetryAfterSeconds rounds d up to whole seconds, at least one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
