package domain

// Period identifies a rolling progress-tracking window.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Periods lists every granularity a baseline snapshot is kept for.
var Periods = []Period{PeriodWeekly, PeriodMonthly, PeriodYearly}

// Valid reports whether p is a known granularity.
func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Tab identifies one leaderboard view.
type Tab string

const (
	TabAllTime Tab = "alltime"
	TabWeekly  Tab = "weekly"
	TabMonthly Tab = "monthly"
	TabYearly  Tab = "yearly"
	TabJobs    Tab = "jobs"
)

// Tabs lists every leaderboard view, in display order.
var Tabs = []Tab{TabAllTime, TabWeekly, TabMonthly, TabYearly, TabJobs}

// ParseTab parses a route parameter into a Tab.
func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case TabAllTime, TabWeekly, TabMonthly, TabYearly, TabJobs:
		return Tab(s), true
	}
	return "", false
}

// Period returns the snapshot granularity backing a period tab.
func (t Tab) Period() (Period, bool) {
	switch t {
	case TabWeekly:
		return PeriodWeekly, true
	case TabMonthly:
		return PeriodMonthly, true
	case TabYearly:
		return PeriodYearly, true
	}
	return "", false
}
