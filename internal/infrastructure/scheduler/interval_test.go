package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsAndStops(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(Options{Name: "scrape", Interval: 10 * time.Millisecond, RunOnStart: true})

	err := s.Start(context.Background(), func(context.Context, time.Time) { runs.Add(1) })
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := runs.Load()
	time.Sleep(40 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after stop")
	}
}

func TestIntervalSchedulerAppliesTimeout(t *testing.T) {
	t.Parallel()

	got := make(chan bool, 1)
	s := NewIntervalScheduler(Options{Interval: time.Hour, Timeout: 20 * time.Millisecond, RunOnStart: true})

	_ = s.Start(context.Background(), func(ctx context.Context, _ time.Time) {
		_, hasDeadline := ctx.Deadline()
		select {
		case got <- hasDeadline:
		default:
		}
	})
	defer func() { _ = s.Stop(context.Background()) }()

	select {
	case hasDeadline := <-got:
		if !hasDeadline {
			t.Fatalf("job context has no deadline")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("job never ran")
	}
}

func TestIntervalSchedulerRecoversPanics(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(Options{Interval: 5 * time.Millisecond, RunOnStart: true})
	_ = s.Start(context.Background(), func(context.Context, time.Time) {
		runs.Add(1)
		panic("boom")
	})

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = s.Stop(context.Background())
	if runs.Load() < 2 {
		t.Fatalf("scheduler died after panic")
	}
}

func TestIntervalSchedulerRejectsZeroInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(Options{})
	if err := s.Start(context.Background(), func(context.Context, time.Time) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop on idle scheduler: %v", err)
	}
}
