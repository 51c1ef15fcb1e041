package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
)

// Job is one scheduled refresh. Required jobs gate readiness.
type Job struct {
	Name     string
	Schedule string
	Required bool
	Run      func(ctx context.Context) error
}

// Poller runs refresh jobs on cron schedules, once at start and then on each tick.
type Poller struct {
	jobs    []Job
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	cron     *cron.Cron
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	warm     sync.WaitGroup

	statusMu sync.RWMutex
	status   map[string]Status
}

// Status describes the recent health of one job.
type Status struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// IsReady reports whether the job has succeeded at least once.
func (s Status) IsReady() bool {
	return !s.LastSuccess.IsZero()
}

// New validates every schedule and constructs a Poller.
func New(jobs []Job, logger *slog.Logger, recorder *metrics.Recorder) (*Poller, error) {
	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("poller: job %q has no run func", j.Name)
		}
		if _, err := cron.ParseStandard(j.Schedule); err != nil {
			return nil, fmt.Errorf("poller: job %q schedule %q: %w", j.Name, j.Schedule, err)
		}
	}
	return &Poller{
		jobs:    jobs,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		status: make(map[string]Status, len(jobs)),
	}, nil
}

// Start warms every job once in the background and schedules the rest.
func (p *Poller) Start(ctx context.Context) error {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.started {
		return nil
	}

	for _, j := range p.jobs {
		j := j
		if _, err := p.cron.AddFunc(j.Schedule, func() { p.RunOnce(ctx, j) }); err != nil {
			return fmt.Errorf("poller: schedule %q: %w", j.Name, err)
		}
	}
	p.started = true

	p.warm.Add(1)
	go func() {
		defer p.warm.Done()
		for _, j := range p.jobs {
			if ctx.Err() != nil {
				return
			}
			p.RunOnce(ctx, j)
		}
		p.cron.Start()
		logging.Info(p.logger, "poller started", "jobs", len(p.jobs))
	}()
	return nil
}

// Stop halts the schedule and waits for running jobs or ctx.
func (p *Poller) Stop(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			p.warm.Wait()
			<-p.cron.Stop().Done()
			close(done)
		}()
		select {
		case <-done:
			logging.Info(p.logger, "poller stopped")
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// RunOnce executes a job and records its outcome.
func (p *Poller) RunOnce(ctx context.Context, j Job) {
	start := p.now()
	p.recordAttempt(j.Name, start)
	err := j.Run(ctx)
	elapsed := time.Since(start)
	p.metrics.RecordWarmCycle(j.Name, elapsed, err)
	if err != nil {
		logging.Error(p.logger, "refresh job failed", err,
			logging.FieldJob, j.Name,
			logging.FieldDurationMS, elapsed.Milliseconds(),
		)
		p.recordFailure(j.Name, err, start)
		return
	}
	p.recordSuccess(j.Name, start)
	logging.Info(p.logger, "refresh job complete",
		logging.FieldJob, j.Name,
		logging.FieldDurationMS, elapsed.Milliseconds(),
	)
}

// Ready reports whether every required job has succeeded at least once.
func (p *Poller) Ready() bool {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	for _, j := range p.jobs {
		if j.Required && !p.status[j.Name].IsReady() {
			return false
		}
	}
	return true
}

// Status returns a snapshot of each job's recent health.
func (p *Poller) Status() map[string]Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	out := make(map[string]Status, len(p.status))
	for k, v := range p.status {
		out[k] = v
	}
	return out
}

func (p *Poller) recordAttempt(job string, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	s := p.status[job]
	s.LastAttempt = at
	p.status[job] = s
}

func (p *Poller) recordSuccess(job string, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	s := p.status[job]
	s.ConsecutiveFailures = 0
	s.LastError = ""
	s.LastSuccess = at
	p.status[job] = s
}

func (p *Poller) recordFailure(job string, err error, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	s := p.status[job]
	s.ConsecutiveFailures++
	if err != nil {
		s.LastError = err.Error()
	}
	s.LastAttempt = at
	p.status[job] = s
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	logging.Debug(l.logger, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logging.Error(l.logger, "cron: "+msg, err, keysAndValues...)
}
