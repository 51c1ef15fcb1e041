package providers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

// Deduplicator collapses concurrent identical GETs into one upstream call.
// The key is forgotten as soon as the call finishes, so it never caches.
type Deduplicator struct {
	next     Getter
	group    singleflight.Group
	metrics  *metrics.Recorder
	provider string
	logger   *slog.Logger
}

func NewDeduplicator(next Getter, rec *metrics.Recorder) *Deduplicator {
	d := &Deduplicator{next: next, metrics: rec, provider: "upstream"}
	if named, ok := next.(interface{ Provider() string }); ok {
		d.provider = named.Provider()
	}
	if f, ok := next.(*Fetcher); ok {
		d.logger = f.logger
	}
	return d
}

// Get joins an in-flight request for url or starts one. The shared call is not
// cancelled by any single caller; each caller stops waiting when its own ctx ends.
func (d *Deduplicator) Get(ctx context.Context, url string) ([]byte, error) {
	key := http.MethodGet + " " + url
	ch := d.group.DoChan(key, func() (any, error) {
		return d.next.Get(context.WithoutCancel(ctx), url)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		d.metrics.RecordDedup(d.provider, res.Shared)
		if res.Err != nil {
			return nil, res.Err
		}
		body, _ := res.Val.([]byte)
		if res.Shared {
			body = bytes.Clone(body)
		}
		return body, nil
	}
}

// GetJSON fetches url through the deduplicator and decodes it into dest.
func (d *Deduplicator) GetJSON(ctx context.Context, url string, dest any) error {
	return getJSON(ctx, d, url, dest)
}

// GetRecords fetches url through the deduplicator and splits it into records.
func (d *Deduplicator) GetRecords(ctx context.Context, url string) ([]RawRecord, error) {
	return getRecords(ctx, d, url, d.logger)
}
