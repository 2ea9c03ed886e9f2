package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/forecast"
)

type stubRunner struct {
	calls chan struct{}
	err   error
}

func (r *stubRunner) Run(ctx context.Context) (*forecast.Outcome, error) {
	r.calls <- struct{}{}
	return nil, r.err
}

func waitForRun(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for forecast run")
	}
}

func TestScheduler_RunsOnEveryTick(t *testing.T) {
	runner := &stubRunner{calls: make(chan struct{}, 8), err: errors.New("boom")}
	clock := clockwork.NewFakeClock()

	s := NewScheduler(runner, time.Hour)
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Immediate refresh, then one per tick. Failures do not stop the loop.
	waitForRun(t, runner.calls)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(time.Hour)
	waitForRun(t, runner.calls)
	clock.Advance(time.Hour)
	waitForRun(t, runner.calls)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "scheduler did not stop after cancel")
	}
}

func TestScheduler_ImportFailureSkipsForecast(t *testing.T) {
	s := setupTestStore(t)
	runner := &stubRunner{calls: make(chan struct{}, 1)}

	sched := NewScheduler(runner, time.Hour)
	sched.SetImporter(NewImporter(s, testFetcher()), Sources{CO2: "/nonexistent/co2.csv"})
	sched.refresh(context.Background())

	select {
	case <-runner.calls:
		require.FailNow(t, "forecast ran after failed import")
	default:
	}
}
