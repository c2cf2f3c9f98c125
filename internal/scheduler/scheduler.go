// Package scheduler runs registered jobs on a single worker, serializing
// every callback so engine state never needs locking.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-alarm-service/internal/domain"
)

type job struct {
	name string
	fn   func(context.Context)
}

// Scheduler queues jobs from timer goroutines onto one worker.
type Scheduler struct {
	clock  clockwork.Clock
	logger *slog.Logger
	jobs   chan job
}

func New(clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: logger,
		jobs:   make(chan job, 64),
	}
}

// Run executes queued jobs one at a time until ctx is cancelled. A panicking
// job is logged and the worker keeps going.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			s.execute(ctx, j)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", "job", j.name, "panic", r)
		}
	}()
	j.fn(ctx)
}

func (s *Scheduler) enqueue(ctx context.Context, j job) {
	select {
	case s.jobs <- j:
	case <-ctx.Done():
	}
}

// RunOnce queues fn for a single execution.
func (s *Scheduler) RunOnce(ctx context.Context, name string, fn func(context.Context)) {
	go s.enqueue(ctx, job{name: name, fn: fn})
}

// RunEvery queues fn at a fixed interval, first run one interval from now.
func (s *Scheduler) RunEvery(ctx context.Context, name string, every time.Duration, fn func(context.Context)) {
	go func() {
		ticker := s.clock.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.enqueue(ctx, job{name: name, fn: fn})
			}
		}
	}()
}

// RunDaily queues fn once per day at the given local wall-clock time. An
// unparseable time is logged and the job is never scheduled.
func (s *Scheduler) RunDaily(ctx context.Context, name, timeOfDay string, fn func(context.Context)) {
	hour, minute, err := domain.ParseTimeOfDay(timeOfDay)
	if err != nil {
		s.logger.Error("invalid daily schedule", "job", name, "time_of_day", timeOfDay, "error", err)
		return
	}

	go func() {
		for {
			now := s.clock.Now()
			next := nextOccurrence(now, hour, minute)
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(next.Sub(now)):
				s.enqueue(ctx, job{name: name, fn: fn})
			}
		}
	}()
}

// nextOccurrence returns the first instant strictly after now whose
// wall-clock time matches hour:minute in now's location.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
