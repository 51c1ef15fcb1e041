package providers

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUpstreamUnavailable is matched by every FetchError once retries are exhausted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrProviderUnavailable is returned when no provider is configured.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// RateLimitError captures rate limit responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Remaining  string
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// StatusError is a non-2xx, non-429 upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// TransientError marks a failure worth retrying (network, timeout, 5xx).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a TransientError or a 5xx StatusError.
func IsTransient(err error) bool {
	var tErr *TransientError
	if errors.As(err, &tErr) {
		return true
	}
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.StatusCode >= 500
}

// MalformedRecordError describes a single ndjson line that failed to parse.
type MalformedRecordError struct {
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record on line %d: %v", e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// FetchError is returned once the fetcher has given up on a URL.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
