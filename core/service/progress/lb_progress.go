// Package progress computes period deltas and leaderboard rankings.
package progress

import (
	"sort"

	"leaderboard_server/core/domain"
	"leaderboard_server/core/service/score"
)

// Compute returns the progress row for one user against their baseline entry.
//
// A nil baseline means the user is not represented in the period's snapshot
// yet (joined after the last ensure pass): progress is strictly "change since
// baseline", so every counter is zero, not the lifetime value. With a
// baseline, each counter is clamped at zero so an upstream correction can
// never show negative progress. XP is recomputed from the deltas, never
// interpolated from the absolute XP values.
func Compute(current domain.UserStats, baseline *domain.SnapshotUserStats) domain.UserStats {
	out := domain.UserStats{
		Username: current.Username,
		Name:     current.Name,
		Error:    current.Error,
	}
	if baseline == nil {
		return out
	}

	out.Easy = clamp(current.Easy - baseline.Easy)
	out.Medium = clamp(current.Medium - baseline.Medium)
	out.Hard = clamp(current.Hard - baseline.Hard)
	out.Total = clamp(current.Total - baseline.Total)
	out.JobsApplied = clamp(current.JobsApplied - baseline.JobsApplied)
	out.XP = score.XP(out.JobsApplied, out.Easy, out.Medium, out.Hard)
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// Rank sorts entries descending by XP with total as the tiebreak and assigns
// dense positional ranks 1..N. Rows carrying a fetch error sort below every
// numeric row (by username among themselves, for a stable display). Ranks are
// positional: ties do not share a rank.
func Rank(entries []domain.UserStats) []domain.UserStats {
	ranked := make([]domain.UserStats, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Error == "") != (b.Error == "") {
			return a.Error == ""
		}
		if a.Error != "" {
			return a.Username < b.Username
		}
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Username < b.Username
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankByJobs orders by application count with lifetime XP as the tiebreak,
// used for the jobs tab.
func RankByJobs(entries []domain.UserStats) []domain.UserStats {
	ranked := make([]domain.UserStats, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.JobsApplied != b.JobsApplied {
			return a.JobsApplied > b.JobsApplied
		}
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		return a.Username < b.Username
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// PreviousBoard reconstructs the leaderboard of a finished period from its two
// bracketing snapshots: end is the baseline captured at the start of the
// current period (the previous period's closing state), start is the previous
// period's own baseline.
//
// Unlike live progress, a user absent from the start snapshot gets a zero
// baseline and full credit: retrospectively there is no later ensure pass
// that could seed them.
func PreviousBoard(end, start *domain.Snapshot) []domain.UserStats {
	if end == nil {
		return nil
	}

	entries := make([]domain.UserStats, 0, len(end.Users))
	for _, u := range end.Users {
		current := domain.UserStats{
			Username:    u.Username,
			Name:        u.Name,
			Easy:        u.Easy,
			Medium:      u.Medium,
			Hard:        u.Hard,
			Total:       u.Total,
			JobsApplied: u.JobsApplied,
		}

		baseline := start.FindUser(u.Username)
		if baseline == nil {
			baseline = &domain.SnapshotUserStats{Username: u.Username}
		}
		entries = append(entries, Compute(current, baseline))
	}

	return Rank(entries)
}
