package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"LajmeCurator/internal/ports"
)

// IntervalScheduler runs one job on a fixed interval using time.Ticker.
// Each run gets its own timeout. Runs never overlap; ticks missed while a
// run is in progress are dropped.
type IntervalScheduler struct {
	name       string
	interval   time.Duration
	timeout    time.Duration
	runOnStart bool
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// Options configures an IntervalScheduler.
type Options struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	RunOnStart bool
	Logger     *slog.Logger
}

// NewIntervalScheduler builds a stopped scheduler.
func NewIntervalScheduler(opts Options) *IntervalScheduler {
	return &IntervalScheduler{
		name:       opts.Name,
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		runOnStart: opts.RunOnStart,
		logger:     opts.Logger,
	}
}

// Start begins ticking. Calling Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(context.Context, time.Time)) error {
	if job == nil {
		return nil
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if s.runOnStart {
			s.run(runCtx, job, time.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				s.run(runCtx, job, t)
			case <-runCtx.Done():
				return
			}
		}
	}()

	return nil
}

func (s *IntervalScheduler) run(ctx context.Context, job func(context.Context, time.Time), trigger time.Time) {
	jobCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("scheduled job panicked", "job", s.name, "panic", r)
		}
	}()

	if s.logger != nil {
		s.logger.Debug("scheduled job triggered", "job", s.name, "trigger", trigger)
	}
	job(jobCtx, trigger)
}

// Stop cancels the ticker goroutine and waits for a running job to return.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
