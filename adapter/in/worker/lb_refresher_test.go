package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"leaderboard_server/config"
)

type fakeBoards struct {
	calls atomic.Int32
}

func (f *fakeBoards) Refresh(context.Context) error {
	f.calls.Add(1)
	return nil
}

type fakeCounters struct {
	calls atomic.Int32
}

func (f *fakeCounters) ReconcileJobCounts(context.Context) (int, error) {
	f.calls.Add(1)
	return 0, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRefresher_RunsInitialPassOnStart(t *testing.T) {
	boards := &fakeBoards{}
	counters := &fakeCounters{}
	cfg := &config.Config{RefreshInterval: time.Hour, RefreshWorkers: 1}

	r := NewRefresher(boards, counters, cfg, zerolog.Nop())
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return boards.calls.Load() >= 1 && counters.calls.Load() >= 1
	})
}

func TestRefresher_TicksSubmitRefreshJobs(t *testing.T) {
	boards := &fakeBoards{}
	counters := &fakeCounters{}
	cfg := &config.Config{RefreshInterval: 20 * time.Millisecond, RefreshWorkers: 2}

	r := NewRefresher(boards, counters, cfg, zerolog.Nop())
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop()

	// Initial pass plus at least two ticks.
	waitFor(t, 2*time.Second, func() bool {
		return boards.calls.Load() >= 3
	})
}

func TestRefresher_StopIsIdempotent(t *testing.T) {
	cfg := &config.Config{RefreshInterval: time.Hour, RefreshWorkers: 1}
	r := NewRefresher(&fakeBoards{}, &fakeCounters{}, cfg, zerolog.Nop())

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	r.Stop()
	r.Stop() // must not panic or block
}
