// Package scheduler runs the periodic records reconciliation job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/ironflow/pkg/logger"
	"github.com/okian/ironflow/pkg/metrics"
)

// ErrInvalidSchedule is returned for cron specs that do not parse.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Reconciler rescans finished tournaments into the records vault.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation evaluates the schedule in loc instead of the server's local time.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Scheduler triggers a Reconciler on a standard 5-field cron spec. A tick
// that fires while the previous run is still going is skipped.
type Scheduler struct {
	c      *cron.Cron
	spec   string
	rec    Reconciler
	loc    *time.Location
	logger logger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates spec and builds a stopped Scheduler.
func New(spec string, rec Reconciler, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{spec: spec, rec: rec, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}

	s.c = cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.c.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	return s, nil
}

// Start begins firing. Runs use ctx until Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info(ctx, "starting scheduler", logger.String("cron", s.spec))
	s.c.Start()
}

// Stop halts the schedule, cancels a run in progress and waits for it.
func (s *Scheduler) Stop() {
	done := s.c.Stop()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-done.Done()
}

// Next returns the next activation time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_, _ = s.RunOnce(ctx)
}

// RunOnce performs one reconciliation immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.rec.Reconcile(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("scheduler", "reconcile")
		s.logger.Error(ctx, "records reconciliation failed", logger.Error(err))
		return n, err
	}
	s.logger.Info(ctx, "scheduler tick done",
		logger.Int("records_set", n),
		logger.Duration("took", time.Since(start)),
	)
	return n, nil
}
