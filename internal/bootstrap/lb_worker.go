package bootstrap

import (
	"context"
	"os"

	"leaderboard_server/adapter/in/worker"
	"leaderboard_server/config"
	"leaderboard_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker runs the background refresher.
type Worker struct {
	refresher *worker.Refresher
	deps      *Dependencies
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	refresher := worker.NewRefresher(
		deps.LeaderboardService,
		deps.RosterService,
		cfg,
		zlog,
	)

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		refresher: refresher,
		deps:      deps,
		ctx:       ctx,
		cancel:    cancel,
	}, cleanup, nil
}

// Start launches the refresher and blocks until Stop is called.
func (w *Worker) Start() {
	if err := w.refresher.Start(); err != nil {
		logger.Error("Failed to start refresher: %v", err)
		return
	}

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.refresher.Stop()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
