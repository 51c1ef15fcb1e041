package server

import (
	"log/slog"

	"github.com/preston-bernstein/mlb-data-service/internal/config"
	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
)

// fansProvider labels the follow dataset download in logs and metrics.
const fansProvider = "fans"

// upstream is the shared outbound path: one gate, one fetcher, one dedup layer.
// Every provider call goes through getter. The follow dataset has its own fetcher
// with a longer timeout and no gate, since it is not served by the stats API.
type upstream struct {
	gate    *providers.Gate
	fetcher *providers.Fetcher
	getter  *providers.Deduplicator
	fans    *providers.Deduplicator
}

// providerFactory assembles the upstream path and the provider on top of it.
type providerFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newProviderFactory(logger *slog.Logger, metrics *metrics.Recorder) providerFactory {
	return providerFactory{logger: logger, metrics: metrics}
}

func (f providerFactory) upstream(cfg config.Config) upstream {
	name := normalizeProviderName(cfg.Provider)
	gate := providers.NewGate(cfg.Upstream.Burst, cfg.Upstream.Interval).WithMetrics(f.metrics, name)
	fetcher := providers.NewFetcher(providers.FetcherConfig{
		Provider:       name,
		Timeout:        cfg.Upstream.Timeout,
		MaxRetries:     cfg.Upstream.MaxRetries,
		Backoff:        cfg.Upstream.Backoff,
		RateLimitDelay: cfg.Upstream.RateLimitDelay,
		RateLimitWaits: cfg.Upstream.RateLimitWaits,
		Gate:           gate,
		UserAgent:      cfg.MLB.UserAgent,
		Logger:         f.logger,
		Metrics:        f.metrics,
	})
	fansFetcher := providers.NewFetcher(providers.FetcherConfig{
		Provider:       fansProvider,
		Timeout:        cfg.Fans.Timeout,
		MaxRetries:     cfg.Upstream.MaxRetries,
		Backoff:        cfg.Upstream.Backoff,
		RateLimitDelay: cfg.Upstream.RateLimitDelay,
		RateLimitWaits: cfg.Upstream.RateLimitWaits,
		UserAgent:      cfg.MLB.UserAgent,
		Logger:         f.logger,
		Metrics:        f.metrics,
	})
	return upstream{
		gate:    gate,
		fetcher: fetcher,
		getter:  providers.NewDeduplicator(fetcher, f.metrics),
		fans:    providers.NewDeduplicator(fansFetcher, f.metrics),
	}
}

func (f providerFactory) build(cfg config.Config, up upstream) providers.DataProvider {
	return selectProvider(cfg, up.getter, f.logger)
}
