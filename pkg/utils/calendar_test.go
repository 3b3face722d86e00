package utils

import (
	"testing"
	"time"
)

func TestNewMonthWindow(t *testing.T) {
	ref := time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC)
	w := NewMonthWindow(ref)

	checks := []struct {
		name string
		got  time.Time
		want time.Time
	}{
		{"first day", w.FirstDay, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"last day", w.LastDay, time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)},
		{"start of last month", w.StartOfLastMonth, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"start of next month", w.StartOfNextMonth, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"end of next month", w.EndOfNextMonth, time.Date(2024, 4, 30, 23, 59, 59, 999999999, time.UTC)},
		{"two months ago", w.TwoMonthsAgo, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestNewMonthWindowCrossesYears(t *testing.T) {
	w := NewMonthWindow(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	if !w.TwoMonthsAgo.Equal(time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected two months ago %v", w.TwoMonthsAgo)
	}
	if !w.StartOfLastMonth.Equal(time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start of last month %v", w.StartOfLastMonth)
	}

	w = NewMonthWindow(time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC))
	if !w.EndOfNextMonth.Equal(time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC)) {
		t.Errorf("unexpected end of next month %v", w.EndOfNextMonth)
	}
}

func TestMonthWindowInMonth(t *testing.T) {
	w := NewMonthWindow(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	if !w.InMonth(w.FirstDay) || !w.InMonth(w.LastDay) {
		t.Fatal("expected month bounds to be inclusive")
	}
	if w.InMonth(w.StartOfNextMonth) {
		t.Fatal("expected next month to be outside")
	}
	if w.InMonth(w.FirstDay.Add(-time.Millisecond)) {
		t.Fatal("expected previous month to be outside")
	}
}
