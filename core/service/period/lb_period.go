// Package period computes canonical period keys and rollover boundaries.
//
// Every computation converts the input instant into one fixed reference time
// zone first. Keys derived anywhere in the codebase therefore agree for the
// same instant; a zone mismatch here would silently break snapshot idempotence
// and progress correctness.
package period

import (
	"fmt"
	"time"

	"leaderboard_server/core/domain"
)

// referenceZone is the single time zone all period math runs in.
const referenceZone = "Asia/Seoul"

var location *time.Location

func init() {
	loc, err := time.LoadLocation(referenceZone)
	if err != nil {
		// KST has no DST, the fixed offset is equivalent.
		loc = time.FixedZone("KST", 9*60*60)
	}
	location = loc
}

// Location returns the reference time zone.
func Location() *time.Location {
	return location
}

// Key returns the canonical key for the period containing t.
// Weekly keys use the ISO-8601 week-year and week number (Monday start),
// monthly keys are YYYY-MM, yearly keys are YYYY.
func Key(p domain.Period, t time.Time) string {
	t = t.In(location)
	switch p {
	case domain.PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case domain.PeriodMonthly:
		return t.Format("2006-01")
	case domain.PeriodYearly:
		return t.Format("2006")
	}
	return t.Format("2006-01-02")
}

// CurrentKey returns the key for the period containing now.
func CurrentKey(p domain.Period) string {
	return Key(p, time.Now())
}

// PreviousKey returns the key of the period immediately before the one
// containing t. Computed from the period start rather than naive date
// arithmetic, so month-length differences cannot skip a period.
func PreviousKey(p domain.Period, t time.Time) string {
	return Key(p, Start(p, t).Add(-time.Second))
}

// Start returns the first instant of the period containing t, in the
// reference zone.
func Start(p domain.Period, t time.Time) time.Time {
	t = t.In(location)
	switch p {
	case domain.PeriodWeekly:
		// Monday 00:00 of the ISO week.
		daysSinceMonday := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-daysSinceMonday, 0, 0, 0, 0, location)
	case domain.PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, location)
	case domain.PeriodYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, location)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}

// NextStart returns the first instant of the period after the one
// containing t.
func NextStart(p domain.Period, t time.Time) time.Time {
	start := Start(p, t)
	switch p {
	case domain.PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case domain.PeriodMonthly:
		return start.AddDate(0, 1, 0)
	case domain.PeriodYearly:
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 0, 1)
}

// UntilRollover returns the time remaining until the next period boundary.
// Display-only; correctness never depends on it.
func UntilRollover(p domain.Period, now time.Time) time.Duration {
	return NextStart(p, now).Sub(now.In(location))
}
