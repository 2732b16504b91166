package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"med-reminder/internal/platform/logger"
)

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(d)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("condition not met within %s", d)
		case <-ticker.C:
			if cond() {
				return
			}
		}
	}
}

func TestScheduler_FiresJob(t *testing.T) {
	s := New(logger.Nop())

	var fires atomic.Int32
	if err := s.Every("tick", time.Second, func(context.Context) error {
		fires.Add(1)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	waitFor(t, 2500*time.Millisecond, func() bool { return fires.Load() > 0 })
}

func TestScheduler_SurvivesPanicAndError(t *testing.T) {
	s := New(logger.Nop())

	var calls atomic.Int32
	if err := s.Every("flaky", time.Second, func(context.Context) error {
		n := calls.Add(1)
		if n == 1 {
			panic("boom")
		}
		return errors.New("still failing")
	}); err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	// el panic del primer tick no detiene los siguientes
	waitFor(t, 3500*time.Millisecond, func() bool { return calls.Load() >= 2 })
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	s := New(logger.Nop())

	started := make(chan struct{}, 1)
	if err := s.Every("long", time.Second, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}); err != nil {
		t.Fatal(err)
	}

	s.Start()

	select {
	case <-started:
	case <-time.After(2500 * time.Millisecond):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("expected running job to finish after Stop, got %v", err)
	}
}

func TestScheduler_RejectsInvalidInterval(t *testing.T) {
	s := New(logger.Nop())
	if err := s.Every("bad", 0, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
