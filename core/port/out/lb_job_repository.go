package out

import (
	"context"

	"leaderboard_server/core/domain"
)

// JobRepository defines the outbound port for the job-application log.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	// GetByID returns nil, nil when the job does not exist.
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	ListByUsername(ctx context.Context, username string) ([]*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error
	Delete(ctx context.Context, id string) error
	DeleteByUsername(ctx context.Context, username string) (int64, error)

	// CountByUsername scans the whole collection and returns the true job
	// count per username, used to reconcile the denormalized counters.
	CountByUsername(ctx context.Context) (map[string]int, error)
}
