// Package report computes the statistics and notification texts behind the
// monthly recap and revisit reminder jobs. Everything here is pure: callers
// pass in entries and the current instant.
package report

import "time"

// MonthRange is a closed calendar-month interval plus the month's English name.
type MonthRange struct {
	Start time.Time
	End   time.Time
	Name  string
}

// LastCalendarMonthRange returns the month before the one containing now.
// The range is computed in now's location; End is 23:59:59 on the last day.
func LastCalendarMonthRange(now time.Time) MonthRange {
	loc := now.Location()
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	start := firstOfThisMonth.AddDate(0, -1, 0)
	// day 0 of this month normalises to the last day of the previous one
	end := time.Date(now.Year(), now.Month(), 0, 23, 59, 59, 0, loc)

	return MonthRange{
		Start: start,
		End:   end,
		Name:  start.Month().String(),
	}
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r MonthRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// CutoffInstant subtracts monthsBack calendar months from now.
func CutoffInstant(now time.Time, monthsBack int) time.Time {
	return now.AddDate(0, -monthsBack, 0)
}
