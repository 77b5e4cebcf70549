package sla

import "time"

// One-letter interval codes stored on customer notifications.
const (
	IntervalOnce       = "O"
	IntervalWeekly     = "W"
	IntervalMonthly    = "M"
	IntervalBiMonthly  = "BM"
	IntervalQuarterly  = "Q"
	IntervalHalfYearly = "H"
	IntervalYearly     = "Y"
)

// IntervalDays maps interval codes to the minimum number of days between
// firings. Built once at startup and passed around by reference; never
// mutated after construction.
func IntervalDays() map[string]int {
	return map[string]int{
		IntervalOnce:       0,
		IntervalWeekly:     7,
		IntervalMonthly:    30,
		IntervalBiMonthly:  61,
		IntervalQuarterly:  91,
		IntervalHalfYearly: 182,
		IntervalYearly:     365,
	}
}

// IsDue reports whether a notification with the given trigger date is due
// again after the interval. A nil trigger date is unconditionally due.
// Both sides are truncated to their UTC calendar date first, so a task
// triggered late in the evening still comes due on the correct morning.
func IsDue(triggered *time.Time, intervalDays int, today time.Time) bool {
	if triggered == nil {
		return true
	}
	elapsed := dateOf(today).Sub(dateOf(*triggered))
	return int(elapsed.Hours()/24) >= intervalDays
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
