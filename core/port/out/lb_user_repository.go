// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"leaderboard_server/core/domain"
)

// UserRepository defines the outbound port for roster storage.
type UserRepository interface {
	// GetByUsername returns nil, nil when the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error

	// AdjustJobsApplied shifts the denormalized counter by delta, floored
	// at zero.
	AdjustJobsApplied(ctx context.Context, username string, delta int) error
	// SetJobsApplied overwrites the counter, used by reconciliation.
	SetJobsApplied(ctx context.Context, username string, count int) error
}
