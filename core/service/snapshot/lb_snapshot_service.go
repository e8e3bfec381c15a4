// Package snapshot implements the baseline snapshot store: lazy, idempotent
// materialization of period baselines and their late-joiner patches.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leaderboard_server/core/domain"
	"leaderboard_server/core/port/out"
	"leaderboard_server/core/service/period"
	"leaderboard_server/pkg/logger"
)

// Service coordinates snapshot materialization against the repository.
type Service struct {
	snapshots out.SnapshotRepository
	log       *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a new snapshot service.
func NewService(snapshots out.SnapshotRepository) *Service {
	return &Service{
		snapshots: snapshots,
		log:       logger.WithField("component", "snapshot"),
		now:       time.Now,
	}
}

// EnsureCurrent idempotently returns the snapshot for the period containing
// now. The first call in a period materializes the baseline from the stats
// passed in; every later call returns the stored document unchanged. A lost
// insert race resolves through the repository's unique (period, period key)
// constraint: the duplicate-key result is re-read, never surfaced.
func (s *Service) EnsureCurrent(ctx context.Context, p domain.Period, current []domain.UserStats) (*domain.Snapshot, error) {
	key := period.Key(p, s.now())

	snap, err := s.snapshots.Get(ctx, p, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s/%s: %w", p, key, err)
	}
	if snap != nil {
		return snap, nil
	}

	snap = &domain.Snapshot{
		Period:    p,
		PeriodKey: key,
		CreatedAt: s.now(),
		Users:     toBaselineEntries(current),
	}

	if err := s.snapshots.Insert(ctx, snap); err != nil {
		if errors.Is(err, out.ErrDuplicateSnapshot) {
			// A concurrent initialization won the race; its baseline
			// is the canonical one.
			return s.snapshots.Get(ctx, p, key)
		}
		return nil, fmt.Errorf("failed to persist snapshot %s/%s: %w", p, key, err)
	}

	s.log.Info("Materialized %s snapshot %s with %d users", p, key, len(snap.Users))
	return snap, nil
}

// GetByKey returns the snapshot for a specific period key, or nil if that
// period was never captured. Absence is an expected outcome for new
// deployments, not an error.
func (s *Service) GetByKey(ctx context.Context, p domain.Period, key string) (*domain.Snapshot, error) {
	return s.snapshots.Get(ctx, p, key)
}

// Previous returns the snapshot of the period immediately before the current
// one, or nil if it was never captured.
func (s *Service) Previous(ctx context.Context, p domain.Period) (*domain.Snapshot, error) {
	return s.snapshots.Get(ctx, p, period.PreviousKey(p, s.now()))
}

// SeedUserBaseline records a newly joined user's stats as their baseline in
// every already-materialized current-period snapshot, so their progress counts
// from the join point. The fan-out over all granularities is deliberate:
// weekly, monthly and yearly snapshots are patched independently, and a
// granularity whose snapshot is not materialized yet is skipped (it captures
// the user on its own first ensure). Existing entries are never overwritten.
func (s *Service) SeedUserBaseline(ctx context.Context, username, name string, stats domain.UserStats) error {
	entry := toBaselineEntry(stats)
	entry.Username = username
	entry.Name = name

	var firstErr error
	for _, p := range domain.Periods {
		key := period.Key(p, s.now())
		if err := s.snapshots.AppendUser(ctx, p, key, entry); err != nil {
			s.log.WithError(err).Error("Failed to seed %s baseline for %s", p, username)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to seed %s baseline for %s: %w", p, username, err)
			}
		}
	}
	return firstErr
}

// RemoveUser purges a removed roster member from each current-period
// snapshot so they drop off live progress boards. Historical snapshots keep
// their entries: prior-period reconstruction shows the roster as it was.
func (s *Service) RemoveUser(ctx context.Context, username string) error {
	var firstErr error
	for _, p := range domain.Periods {
		key := period.Key(p, s.now())
		if err := s.snapshots.PullUser(ctx, p, key, username); err != nil {
			s.log.WithError(err).Error("Failed to remove %s from %s snapshot", username, p)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %s from %s snapshot: %w", username, p, err)
			}
		}
	}
	return firstErr
}

func toBaselineEntries(stats []domain.UserStats) []domain.SnapshotUserStats {
	entries := make([]domain.SnapshotUserStats, 0, len(stats))
	for _, st := range stats {
		entries = append(entries, toBaselineEntry(st))
	}
	return entries
}

func toBaselineEntry(st domain.UserStats) domain.SnapshotUserStats {
	return domain.SnapshotUserStats{
		Username:    st.Username,
		Name:        st.Name,
		JobsApplied: st.JobsApplied,
		Easy:        st.Easy,
		Medium:      st.Medium,
		Hard:        st.Hard,
		Total:       st.Total,
		XP:          st.XP,
	}
}
