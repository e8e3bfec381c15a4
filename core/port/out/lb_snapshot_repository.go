package out

import (
	"context"
	"errors"

	"leaderboard_server/core/domain"
)

// ErrDuplicateSnapshot is returned by Insert when a snapshot with the same
// (period, period key) already exists. Callers treat it as "already
// materialized, re-read", never as a failure.
var ErrDuplicateSnapshot = errors.New("snapshot already exists for period key")

// SnapshotRepository defines the outbound port for baseline snapshot storage.
// The implementation must enforce uniqueness of (period, periodKey).
type SnapshotRepository interface {
	// Get returns nil, nil when no snapshot was captured for the key.
	Get(ctx context.Context, period domain.Period, periodKey string) (*domain.Snapshot, error)

	// Insert persists a new snapshot; ErrDuplicateSnapshot on a key clash.
	Insert(ctx context.Context, snapshot *domain.Snapshot) error

	// AppendUser appends a late joiner's baseline entry to an existing
	// snapshot. No-op when the snapshot is absent or already contains the
	// username; existing entries are never overwritten.
	AppendUser(ctx context.Context, period domain.Period, periodKey string, entry domain.SnapshotUserStats) error

	// PullUser removes a user's entry from the snapshot, if present.
	PullUser(ctx context.Context, period domain.Period, periodKey string, username string) error
}
