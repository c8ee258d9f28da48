package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"LajmeCurator/internal/metrics"
	"LajmeCurator/internal/ports"
)

// Job is one recurring task bound to its own scheduler driver.
type Job struct {
	Name   string
	Driver ports.Scheduler
	Run    func(ctx context.Context, trigger time.Time) error
}

// Scheduler wires the interval drivers with the use cases.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{jobs: jobs, logger: logger}
}

// ScrapeJob adapts Pipeline.Scrape.
func ScrapeJob(p *Pipeline) func(context.Context, time.Time) error {
	return func(ctx context.Context, _ time.Time) error {
		_, err := p.Scrape(ctx)
		return err
	}
}

// CleanupJob adapts Retention.Run.
func CleanupJob(r *Retention) func(context.Context, time.Time) error {
	return func(ctx context.Context, trigger time.Time) error {
		_, err := r.Run(ctx, trigger)
		return err
	}
}

// DigestJob adapts DigestPublisher.Publish.
func DigestJob(d *DigestPublisher) func(context.Context, time.Time) error {
	return func(ctx context.Context, _ time.Time) error {
		_, err := d.Publish(ctx)
		return err
	}
}

// Start registers every job with its driver.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if job.Driver == nil || job.Run == nil {
			continue
		}
		run := job.Run
		name := job.Name
		err := job.Driver.Start(ctx, func(jobCtx context.Context, trigger time.Time) {
			err := run(jobCtx, trigger)
			metrics.RecordJob(name, err)
			if err != nil {
				s.logger.Error("scheduled job failed", "job", name, "error", err)
			}
		})
		if err != nil {
			return err
		}
		s.logger.Info("scheduled job registered", "job", name)
	}
	return nil
}

// Stop gracefully tears down every driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	var errs []error
	for _, job := range s.jobs {
		if job.Driver == nil {
			continue
		}
		if err := job.Driver.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
