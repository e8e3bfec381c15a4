package domain

import "time"

// SnapshotUserStats is one user's baseline entry inside a period snapshot:
// their absolute stats at the first observation of that period (or at the
// moment they joined the roster mid-period).
type SnapshotUserStats struct {
	Username    string  `json:"username"`
	Name        string  `json:"name,omitempty"`
	JobsApplied int     `json:"jobs_applied"`
	Easy        int     `json:"easy"`
	Medium      int     `json:"medium"`
	Hard        int     `json:"hard"`
	Total       int     `json:"total"`
	XP          float64 `json:"xp"`
}

// Snapshot is a persisted period baseline. At most one snapshot exists per
// (Period, PeriodKey) pair; existing user entries are immutable, the only
// permitted mutation is the append of a late joiner's baseline.
type Snapshot struct {
	Period    Period              `json:"period"`
	PeriodKey string              `json:"period_key"`
	CreatedAt time.Time           `json:"created_at"`
	Users     []SnapshotUserStats `json:"users"`
}

// FindUser returns the baseline entry for username, or nil if the user is not
// represented in this snapshot.
func (s *Snapshot) FindUser(username string) *SnapshotUserStats {
	if s == nil {
		return nil
	}
	for i := range s.Users {
		if s.Users[i].Username == username {
			return &s.Users[i]
		}
	}
	return nil
}
