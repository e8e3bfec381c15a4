package out

import (
	"context"

	"leaderboard_server/core/domain"
)

// StatsProvider defines the outbound port for the third-party problem-stats
// source. Fetch returns domain.ErrUserNotFound when the username does not
// exist upstream (terminal); any other error is a transient failure whose
// message is surfaced on the user's leaderboard row. Safe for concurrent use;
// callers bound fan-out.
type StatsProvider interface {
	Fetch(ctx context.Context, username string) (*domain.SolvedStats, error)
}
