package utils

import "time"

// MonthWindow holds the boundaries used by the month calendar query.
// Every boundary is in UTC and the Last*/End* values are the last
// instant of their month, so ranges are inclusive on both ends.
type MonthWindow struct {
	FirstDay         time.Time
	LastDay          time.Time
	StartOfLastMonth time.Time
	StartOfNextMonth time.Time
	EndOfNextMonth   time.Time
	TwoMonthsAgo     time.Time
}

func startOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func NewMonthWindow(reference time.Time) MonthWindow {
	ref := reference.UTC()
	year, month := ref.Year(), ref.Month()

	return MonthWindow{
		FirstDay:         startOfMonth(year, month),
		LastDay:          startOfMonth(year, month+1).Add(-time.Nanosecond),
		StartOfLastMonth: startOfMonth(year, month-1),
		StartOfNextMonth: startOfMonth(year, month+1),
		EndOfNextMonth:   startOfMonth(year, month+2).Add(-time.Nanosecond),
		TwoMonthsAgo:     startOfMonth(year, month-2),
	}
}

// InMonth reports whether t falls inside [FirstDay, LastDay].
func (w MonthWindow) InMonth(t time.Time) bool {
	return !t.Before(w.FirstDay) && !t.After(w.LastDay)
}
