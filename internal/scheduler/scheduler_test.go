package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForRun(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run in time")
	}
}

func TestNextOccurrence(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Time
	}{
		{
			name: "later today",
			now:  base, hour: 18, minute: 15,
			want: time.Date(2024, 4, 26, 18, 15, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  base, hour: 7, minute: 0,
			want: time.Date(2024, 4, 27, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "exact match rolls to tomorrow",
			now:  base, hour: 12, minute: 0,
			want: time.Date(2024, 4, 27, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight",
			now:  base, hour: 0, minute: 0,
			want: time.Date(2024, 4, 27, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextOccurrence(tt.now, tt.hour, tt.minute))
		})
	}
}

func TestRunOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clockwork.NewFakeClock(), discardLogger())
	go s.Run(ctx)

	ran := make(chan struct{})
	s.RunOnce(ctx, "test", func(context.Context) { close(ran) })

	waitForRun(t, ran)
}

func TestRunEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClock()
	s := New(clock, discardLogger())
	go s.Run(ctx)

	ran := make(chan struct{}, 10)
	s.RunEvery(ctx, "tick", time.Hour, func(context.Context) { ran <- struct{}{} })

	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitForRun(t, ran)

	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitForRun(t, ran)
}

func TestRunDaily(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC))
	s := New(clock, discardLogger())
	go s.Run(ctx)

	ran := make(chan struct{}, 10)
	s.RunDaily(ctx, "daily", "18:15", func(context.Context) { ran <- struct{}{} })

	clock.BlockUntil(1)
	clock.Advance(6*time.Hour + 15*time.Minute)
	waitForRun(t, ran)
}

func TestRunDaily_InvalidTimeNeverSchedules(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clockwork.NewFakeClock(), discardLogger())
	go s.Run(ctx)

	// Must not panic or register a timer goroutine.
	s.RunDaily(ctx, "bad", "25:00", func(context.Context) { t.Error("should not run") })
	time.Sleep(50 * time.Millisecond)
}

func TestRun_SerializesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clockwork.NewFakeClock(), discardLogger())
	go s.Run(ctx)

	var inFlight, overlapped atomic.Int32
	done := make(chan struct{}, 20)
	for range 20 {
		s.RunOnce(ctx, "job", func(context.Context) {
			if inFlight.Add(1) > 1 {
				overlapped.Add(1)
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			done <- struct{}{}
		})
	}

	for range 20 {
		waitForRun(t, done)
	}
	assert.Zero(t, overlapped.Load(), "jobs must never run concurrently")
}

func TestRun_RecoversFromPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clockwork.NewFakeClock(), discardLogger())
	go s.Run(ctx)

	boomed := make(chan struct{})
	s.RunOnce(ctx, "boom", func(context.Context) {
		close(boomed)
		panic("kaputt")
	})
	waitForRun(t, boomed)

	// The worker survives and keeps executing.
	ran := make(chan struct{})
	s.RunOnce(ctx, "after", func(context.Context) { close(ran) })
	waitForRun(t, ran)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := New(clockwork.NewFakeClock(), discardLogger())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	require.Error(t, ctx.Err())
}
