package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"

	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

const (
	DefaultTimeout        = 5 * time.Second
	DefaultMaxRetries     = 2
	DefaultBackoff        = 500 * time.Millisecond
	DefaultRateLimitDelay = time.Second
	DefaultRateLimitWaits = 3

	errorBodyLimit = 512
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherConfig controls retry, timeout and rate limiting for upstream GETs.
// MaxRetries and RateLimitWaits are used as given; zero disables that retry path.
type FetcherConfig struct {
	Provider       string
	HTTPClient     *http.Client
	Timeout        time.Duration
	MaxRetries     int
	Backoff        time.Duration
	RateLimitDelay time.Duration
	RateLimitWaits int
	Gate           *Gate
	UserAgent      string
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
}

// Fetcher performs GET requests with a per-attempt timeout, exponential backoff on
// failures and a separate fixed-delay budget for 429 responses.
type Fetcher struct {
	provider       string
	client         httpDoer
	timeout        time.Duration
	maxRetries     int
	backoff        time.Duration
	rateLimitDelay time.Duration
	rateLimitWaits int
	gate           *Gate
	userAgent      string
	logger         *slog.Logger
	metrics        *metrics.Recorder
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	f := &Fetcher{
		provider:       cfg.Provider,
		client:         cfg.HTTPClient,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		backoff:        cfg.Backoff,
		rateLimitDelay: cfg.RateLimitDelay,
		rateLimitWaits: cfg.RateLimitWaits,
		gate:           cfg.Gate,
		userAgent:      cfg.UserAgent,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		sleep:          sleepContext,
	}
	if cfg.HTTPClient == nil {
		f.client = &http.Client{}
	}
	if f.provider == "" {
		f.provider = "upstream"
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.backoff <= 0 {
		f.backoff = DefaultBackoff
	}
	if f.rateLimitDelay <= 0 {
		f.rateLimitDelay = DefaultRateLimitDelay
	}
	if f.maxRetries < 0 {
		f.maxRetries = 0
	}
	if f.rateLimitWaits < 0 {
		f.rateLimitWaits = 0
	}
	return f
}

// Provider returns the name used in logs and metrics.
func (f *Fetcher) Provider() string {
	return f.provider
}

// Get fetches url and returns the body of the first 2xx response.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	bo := f.newBackOff()
	failures, rateLimited := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.gate.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		body, err := f.attempt(ctx, url)
		f.metrics.RecordProviderAttempt(f.provider, time.Since(start), err)
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if rlErr, ok := AsRateLimitError(err); ok {
			f.metrics.RecordRateLimit(f.provider, rlErr.RetryAfter)
			if rateLimited >= f.rateLimitWaits {
				return nil, f.giveUp(url, failures+rateLimited+1, err)
			}
			rateLimited++
			logging.Warn(f.logger, "upstream rate limited, waiting",
				logging.FieldProvider, f.provider,
				logging.FieldURL, url,
				logging.FieldAttempt, rateLimited,
				"delay", f.rateLimitDelay,
			)
			if err := f.sleep(ctx, f.rateLimitDelay); err != nil {
				return nil, err
			}
			continue
		}

		failures++
		if failures > f.maxRetries {
			return nil, f.giveUp(url, failures+rateLimited, err)
		}
		delay := bo.NextBackOff()
		logging.Warn(f.logger, "upstream fetch retry",
			logging.FieldProvider, f.provider,
			logging.FieldURL, url,
			logging.FieldAttempt, failures,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", err,
		)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// GetJSON fetches url and decodes the body into dest.
func (f *Fetcher) GetJSON(ctx context.Context, url string, dest any) error {
	return getJSON(ctx, f, url, dest)
}

// GetRecords fetches url and splits the body into records (JSON array, object or ndjson).
func (f *Fetcher) GetRecords(ctx context.Context, url string) ([]RawRecord, error) {
	return getRecords(ctx, f, url, f.logger)
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &RateLimitError{
			Provider:   f.provider,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Remaining:  resp.Header.Get("X-RateLimit-Remaining"),
			Message:    "upstream rate limited",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	return body, nil
}

func (f *Fetcher) giveUp(url string, attempts int, err error) error {
	logging.Error(f.logger, "upstream fetch failed", err,
		logging.FieldProvider, f.provider,
		logging.FieldURL, url,
		"attempts", attempts,
	)
	return &FetchError{URL: url, Attempts: attempts, Err: err}
}

// newBackOff yields base, 2*base, 4*base, ... with no jitter and no elapsed-time cap.
func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = f.backoff << 10
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsContextError reports whether err came from context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
