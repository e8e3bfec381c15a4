package period

import (
	"testing"
	"time"

	"leaderboard_server/core/domain"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, Location())
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		period domain.Period
		t      time.Time
		want   string
	}{
		{"weekly mid-week", domain.PeriodWeekly, at(2026, time.January, 7, 12, 0), "2026-W02"},
		{"weekly single-digit week zero-padded", domain.PeriodWeekly, at(2026, time.January, 1, 0, 0), "2026-W01"},
		{"weekly ISO week-year differs from calendar year", domain.PeriodWeekly, at(2027, time.January, 1, 0, 0), "2026-W53"},
		{"weekly sunday belongs to monday-start week", domain.PeriodWeekly, at(2026, time.January, 11, 23, 59), "2026-W02"},
		{"monthly", domain.PeriodMonthly, at(2026, time.March, 15, 9, 30), "2026-03"},
		{"yearly", domain.PeriodYearly, at(2026, time.August, 30, 0, 0), "2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.period, tt.t); got != tt.want {
				t.Errorf("Key(%s, %v) = %q, want %q", tt.period, tt.t, got, tt.want)
			}
		})
	}
}

func TestKey_StableWithinPeriod(t *testing.T) {
	// Any two instants in the same ISO week must share a key.
	monday := at(2026, time.January, 5, 0, 0)
	sunday := at(2026, time.January, 11, 23, 59)
	if Key(domain.PeriodWeekly, monday) != Key(domain.PeriodWeekly, sunday) {
		t.Errorf("same ISO week produced different keys: %q vs %q",
			Key(domain.PeriodWeekly, monday), Key(domain.PeriodWeekly, sunday))
	}

	// One week later the key must differ and compare as a later key.
	nextMonday := monday.AddDate(0, 0, 7)
	k1 := Key(domain.PeriodWeekly, sunday)
	k2 := Key(domain.PeriodWeekly, nextMonday)
	if k1 == k2 {
		t.Fatalf("adjacent ISO weeks share key %q", k1)
	}
	if !(k2 > k1) {
		t.Errorf("later week key %q does not compare after %q", k2, k1)
	}
}

func TestKey_ZoneIndependent(t *testing.T) {
	// The same instant expressed in another zone must produce the same key.
	inRef := at(2026, time.January, 5, 3, 0)
	inUTC := inRef.UTC() // Jan 4 18:00 UTC, previous ISO week in UTC terms

	for _, p := range domain.Periods {
		if Key(p, inRef) != Key(p, inUTC) {
			t.Errorf("Key(%s) differs across zone representations: %q vs %q",
				p, Key(p, inRef), Key(p, inUTC))
		}
	}
}

func TestPreviousKey(t *testing.T) {
	tests := []struct {
		name   string
		period domain.Period
		t      time.Time
		want   string
	}{
		{"weekly", domain.PeriodWeekly, at(2026, time.January, 7, 12, 0), "2026-W01"},
		{"weekly across year boundary", domain.PeriodWeekly, at(2026, time.January, 1, 0, 0), "2025-W52"},
		{"monthly", domain.PeriodMonthly, at(2026, time.March, 31, 12, 0), "2026-02"},
		{"monthly across year boundary", domain.PeriodMonthly, at(2026, time.January, 15, 0, 0), "2025-12"},
		{"yearly", domain.PeriodYearly, at(2026, time.June, 1, 0, 0), "2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreviousKey(tt.period, tt.t); got != tt.want {
				t.Errorf("PreviousKey(%s, %v) = %q, want %q", tt.period, tt.t, got, tt.want)
			}
		})
	}
}

func TestStart(t *testing.T) {
	// March 31 is a Tuesday; the ISO week starts on Monday March 30.
	ts := at(2026, time.March, 31, 15, 45)

	if got, want := Start(domain.PeriodWeekly, ts), at(2026, time.March, 30, 0, 0); !got.Equal(want) {
		t.Errorf("weekly Start = %v, want %v", got, want)
	}
	if got, want := Start(domain.PeriodMonthly, ts), at(2026, time.March, 1, 0, 0); !got.Equal(want) {
		t.Errorf("monthly Start = %v, want %v", got, want)
	}
	if got, want := Start(domain.PeriodYearly, ts), at(2026, time.January, 1, 0, 0); !got.Equal(want) {
		t.Errorf("yearly Start = %v, want %v", got, want)
	}
}

func TestUntilRollover(t *testing.T) {
	now := at(2026, time.January, 7, 12, 0) // Wednesday noon

	for _, p := range domain.Periods {
		remaining := UntilRollover(p, now)
		if remaining <= 0 {
			t.Errorf("UntilRollover(%s) = %v, want positive", p, remaining)
		}
	}

	// Wednesday noon to Monday midnight: 4.5 days.
	if got, want := UntilRollover(domain.PeriodWeekly, now), 108*time.Hour; got != want {
		t.Errorf("weekly UntilRollover = %v, want %v", got, want)
	}

	// The instant after rollover belongs to the next period.
	next := now.Add(UntilRollover(domain.PeriodWeekly, now))
	if Key(domain.PeriodWeekly, now) == Key(domain.PeriodWeekly, next) {
		t.Error("instant at rollover boundary still maps to the old period key")
	}
}
