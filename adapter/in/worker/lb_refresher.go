// Package worker implements the background refresh pipeline.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"leaderboard_server/config"
)

// =============================================================================
// Job Types
// =============================================================================

// JobType identifies a background job.
type JobType string

const (
	// JobRefreshBoards fetches fresh stats, materializes period snapshots
	// and drops cached boards.
	JobRefreshBoards JobType = "boards:refresh"
	// JobReconcileJobs heals drifted job-application counters.
	JobReconcileJobs JobType = "jobs:reconcile"
)

// Message is one unit of background work.
type Message struct {
	ID         string
	Type       JobType
	EnqueuedAt time.Time
	Retries    int
}

// NewMessage creates a new job message.
func NewMessage(jobType JobType) *Message {
	return &Message{
		ID:         uuid.New().String(),
		Type:       jobType,
		EnqueuedAt: time.Now(),
	}
}

// =============================================================================
// Refresher
// =============================================================================

const (
	jobTimeout = 2 * time.Minute
	maxRetries = 2

	// Counter reconciliation runs once per this many refresh ticks.
	reconcileEvery = 6
)

// BoardRefresher runs one snapshot-and-cache refresh pass.
type BoardRefresher interface {
	Refresh(ctx context.Context) error
}

// CounterReconciler heals the denormalized job counters.
type CounterReconciler interface {
	ReconcileJobCounts(ctx context.Context) (int, error)
}

// Refresher schedules periodic refresh jobs onto a worker pool, keeping
// period snapshots materialized even when nobody is looking at the boards.
// Without it the first request after a rollover would pay for the full
// roster fetch, and a quiet week would get its baseline captured days late.
type Refresher struct {
	boards   BoardRefresher
	counters CounterReconciler
	interval time.Duration
	workers  int

	pool   *pool.WorkerGroup[*Message]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger

	started bool
	mu      sync.Mutex
}

// NewRefresher creates a new background refresher.
func NewRefresher(boards BoardRefresher, counters CounterReconciler, cfg *config.Config, log zerolog.Logger) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())

	workers := cfg.RefreshWorkers
	if workers < 1 {
		workers = 1
	}

	return &Refresher{
		boards:   boards,
		counters: counters,
		interval: cfg.RefreshInterval,
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
		log:      log.With().Str("component", "refresher").Logger(),
	}
}

// jobWorker implements pool.Worker for Message processing.
type jobWorker struct {
	r *Refresher
}

// Do implements pool.Worker.
func (w *jobWorker) Do(ctx context.Context, msg *Message) error {
	return w.r.processJob(ctx, msg)
}

// Start launches the worker pool and the tick scheduler. An initial refresh
// is submitted immediately so a fresh deployment materializes its snapshots
// without waiting a full interval.
func (r *Refresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	r.pool = pool.New[*Message](r.workers, &jobWorker{r: r}).
		WithContinueOnError()

	if err := r.pool.Go(r.ctx); err != nil {
		return err
	}
	r.started = true

	r.submit(NewMessage(JobRefreshBoards))
	r.submit(NewMessage(JobReconcileJobs))

	r.wg.Add(1)
	go r.scheduler()

	r.log.Info().
		Int("workers", r.workers).
		Dur("interval", r.interval).
		Msg("background refresher started")
	return nil
}

// Stop drains in-flight jobs and shuts the pool down.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer closeCancel()
	if err := r.pool.Close(closeCtx); err != nil {
		r.log.Warn().Err(err).Msg("error closing refresher pool")
	}

	r.log.Info().Msg("background refresher stopped")
}

func (r *Refresher) scheduler() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			tick++
			r.submit(NewMessage(JobRefreshBoards))
			if tick%reconcileEvery == 0 {
				r.submit(NewMessage(JobReconcileJobs))
			}
		}
	}
}

func (r *Refresher) submit(msg *Message) {
	r.mu.Lock()
	started := r.started
	p := r.pool
	r.mu.Unlock()

	if started && p != nil {
		p.Submit(msg)
	}
}

func (r *Refresher) processJob(ctx context.Context, msg *Message) error {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	var err error

	switch msg.Type {
	case JobRefreshBoards:
		err = r.boards.Refresh(jobCtx)
	case JobReconcileJobs:
		var fixed int
		fixed, err = r.counters.ReconcileJobCounts(jobCtx)
		if err == nil && fixed > 0 {
			r.log.Warn().Int("corrected", fixed).Msg("job counters had drifted")
		}
	default:
		r.log.Error().Str("job_type", string(msg.Type)).Msg("unknown job type dropped")
		return nil
	}

	if err != nil {
		r.log.Error().
			Err(err).
			Str("job_id", msg.ID).
			Str("job_type", string(msg.Type)).
			Int("retries", msg.Retries).
			Msg("background job failed")

		if msg.Retries < maxRetries && r.ctx.Err() == nil {
			msg.Retries++
			backoff := time.Duration(1<<msg.Retries) * time.Second
			time.AfterFunc(backoff, func() {
				r.submit(msg)
			})
		}
		return err
	}

	r.log.Info().
		Str("job_type", string(msg.Type)).
		Dur("elapsed", time.Since(start)).
		Msg("background job completed")
	return nil
}
