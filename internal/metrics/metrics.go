package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	gateDenials     int
	dedupShared     int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type cacheStats struct {
	lookups             map[string]int
	revalidations       int
	revalidationFailure int
}

// Recorder captures lightweight, in-memory metrics about provider calls and caches,
// mirroring them to OpenTelemetry instruments when configured.
type Recorder struct {
	mu        sync.Mutex
	stats     map[string]*providerStats
	caches    map[string]*cacheStats
	fallbacks int
	otel      *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats:  make(map[string]*providerStats),
		caches: make(map[string]*cacheStats),
		otel:   otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.withStats(provider, func(stats *providerStats) {
		stats.calls++
		stats.lastCallLatency = duration
		if err != nil {
			stats.errors++
		}
	})
	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}
	r.withStats(provider, func(stats *providerStats) {
		stats.rateLimitHits++
		if retryAfter > 0 {
			stats.lastRetryAfter = retryAfter
		}
	})
	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// RecordGateDenied tracks a local rate gate refusal.
func (r *Recorder) RecordGateDenied(provider string) {
	if r == nil {
		return
	}
	r.withStats(provider, func(stats *providerStats) { stats.gateDenials++ })
	if r.otel != nil {
		r.otel.recordCounter(r.otel.gateDenials, 1, providerAttr(provider))
	}
}

// RecordDedup tracks whether a fetch was shared with an in-flight call.
func (r *Recorder) RecordDedup(provider string, shared bool) {
	if r == nil || !shared {
		return
	}
	r.withStats(provider, func(stats *providerStats) { stats.dedupShared++ })
	if r.otel != nil {
		r.otel.recordCounter(r.otel.dedupShared, 1, providerAttr(provider))
	}
}

// RecordCacheLookup tracks how a cache lookup was answered (fresh, stale, loaded, fallback, error).
func (r *Recorder) RecordCacheLookup(cache, mode string) {
	if r == nil {
		return
	}
	r.withCache(cache, func(stats *cacheStats) { stats.lookups[mode]++ })
	if r.otel != nil {
		r.otel.recordCacheLookup(cache, mode)
	}
}

// RecordRevalidation tracks a background cache refresh.
func (r *Recorder) RecordRevalidation(cache string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.withCache(cache, func(stats *cacheStats) {
		stats.revalidations++
		if err != nil {
			stats.revalidationFailure++
		}
	})
	if r.otel != nil {
		r.otel.recordRevalidation(cache, duration, err)
	}
}

// RecordBatchFallbacks tracks entities replaced by fallback records in a batch run.
func (r *Recorder) RecordBatchFallbacks(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.mu.Lock()
	r.fallbacks += count
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.batchFallbacks, int64(count))
	}
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for a provider.
func (r *Recorder) LastRetryAfter(provider string) time.Duration {
	return r.Snapshot(provider).LastRetryAfter
}

// LastCallLatency returns the last recorded latency for a provider call.
func (r *Recorder) LastCallLatency(provider string) time.Duration {
	return r.Snapshot(provider).LastCallLatency
}

// CacheLookups returns how many lookups of the named cache were answered in mode.
func (r *Recorder) CacheLookups(cache, mode string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.caches[cache]; ok {
		return stats.lookups[mode]
	}
	return 0
}

// Revalidations returns the number of background refreshes and how many failed.
func (r *Recorder) Revalidations(cache string) (total, failed int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.caches[cache]; ok {
		return stats.revalidations, stats.revalidationFailure
	}
	return 0, 0
}

// BatchFallbacks returns the total number of fallback records produced.
func (r *Recorder) BatchFallbacks() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallbacks
}

// Snapshot returns a copy of the current stats for the provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	GateDenials     int
	DedupShared     int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	stats := r.snapshot(provider)
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		GateDenials:     stats.gateDenials,
		DedupShared:     stats.dedupShared,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordWarmCycle tracks a scheduled refresh job run.
func (r *Recorder) RecordWarmCycle(job string, duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordWarm(job, duration, err)
}

func (r *Recorder) withStats(provider string, fn func(*providerStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	fn(stats)
}

func (r *Recorder) withCache(cache string, fn func(*cacheStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.caches[cache]
	if !ok {
		stats = &cacheStats{lookups: make(map[string]int)}
		r.caches[cache] = stats
	}
	fn(stats)
}

func (r *Recorder) snapshot(provider string) providerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.stats[provider]; ok && stats != nil {
		return *stats
	}
	return providerStats{}
}
