package domain

import "time"

// SolvedStats holds per-difficulty solved counts from the stats source.
type SolvedStats struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Total  int `json:"total"`
}

// UserStats is one computed leaderboard row. For period tabs the counters are
// deltas against the period baseline, for the all-time tab they are absolute.
// Error carries a per-user fetch failure; errored rows keep zero counters and
// rank below every numeric row.
type UserStats struct {
	Username    string  `json:"username"`
	Name        string  `json:"name,omitempty"`
	Easy        int     `json:"easy"`
	Medium      int     `json:"medium"`
	Hard        int     `json:"hard"`
	Total       int     `json:"total"`
	JobsApplied int     `json:"jobs_applied"`
	XP          float64 `json:"xp"`
	Rank        int     `json:"rank,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Board is one fully assembled leaderboard view.
type Board struct {
	Tab             Tab         `json:"tab"`
	PeriodKey       string      `json:"period_key,omitempty"`
	BaselineMissing bool        `json:"baseline_missing,omitempty"`
	ResetInMS       int64       `json:"reset_in_ms,omitempty"`
	Entries         []UserStats `json:"entries"`
	GeneratedAt     time.Time   `json:"generated_at"`
}
