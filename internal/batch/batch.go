package batch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

const (
	DefaultBatchSize = 25
	DefaultWindow    = 5
)

// Orchestrator splits work into fixed-size batches and runs a window of batches at a time.
type Orchestrator struct {
	batchSize int
	window    int
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// New returns an Orchestrator. Non-positive sizes use the defaults.
func New(batchSize, window int, logger *slog.Logger, rec *metrics.Recorder) *Orchestrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Orchestrator{batchSize: batchSize, window: window, logger: logger, metrics: rec}
}

// Plan describes how n items would be split.
type Plan struct {
	Batches int
	Windows int
}

func (o *Orchestrator) Plan(n int) Plan {
	if n <= 0 {
		return Plan{}
	}
	batches := (n + o.batchSize - 1) / o.batchSize
	windows := (batches + o.window - 1) / o.window
	return Plan{Batches: batches, Windows: windows}
}

// Report summarises a ProcessAll run.
type Report struct {
	Items     int
	Batches   int
	Windows   int
	Fallbacks int
}

// ProcessAll applies fn to every item. Batches inside a window run concurrently and each
// window finishes before the next starts. A failed item is replaced by fallback(item, err),
// so the result always has len(items) entries in input order. Once ctx ends the remaining
// items fall back with ctx.Err().
func ProcessAll[In, Out any](
	ctx context.Context,
	o *Orchestrator,
	items []In,
	fn func(context.Context, In) (Out, error),
	fallback func(In, error) Out,
) ([]Out, Report) {
	if o == nil {
		o = New(0, 0, nil, nil)
	}
	plan := o.Plan(len(items))
	out := make([]Out, len(items))
	report := Report{Items: len(items), Batches: plan.Batches, Windows: plan.Windows}
	if len(items) == 0 {
		return out, report
	}

	start := time.Now()
	var fallbacks atomic.Int64
	apply := func(i int) {
		v, err := fn(ctx, items[i])
		if err != nil {
			out[i] = fallback(items[i], err)
			fallbacks.Add(1)
			logging.Debug(o.logger, "batch item fell back", "index", i, "error", err)
			return
		}
		out[i] = v
	}

	windowSpan := o.batchSize * o.window
	for w := 0; w < plan.Windows; w++ {
		lo := w * windowSpan
		hi := min(lo+windowSpan, len(items))

		if err := ctx.Err(); err != nil {
			for i := lo; i < len(items); i++ {
				out[i] = fallback(items[i], err)
			}
			fallbacks.Add(int64(len(items) - lo))
			break
		}

		var g errgroup.Group
		for b := lo; b < hi; b += o.batchSize {
			b := b
			bEnd := min(b+o.batchSize, hi)
			g.Go(func() error {
				var inner errgroup.Group
				for i := b; i < bEnd; i++ {
					i := i
					inner.Go(func() error {
						apply(i)
						return nil
					})
				}
				return inner.Wait()
			})
		}
		_ = g.Wait()
	}

	report.Fallbacks = int(fallbacks.Load())
	o.metrics.RecordBatchFallbacks(report.Fallbacks)
	logging.Info(o.logger, "batch run complete",
		logging.FieldCount, report.Items,
		"batches", report.Batches,
		"windows", report.Windows,
		"fallbacks", report.Fallbacks,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return out, report
}
