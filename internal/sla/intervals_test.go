package sla

import (
	"testing"
	"time"
)

func TestIntervalDays(t *testing.T) {
	days := IntervalDays()
	want := map[string]int{"O": 0, "W": 7, "M": 30, "BM": 61, "Q": 91, "H": 182, "Y": 365}
	if len(days) != len(want) {
		t.Fatalf("codes = %v", days)
	}
	for code, expected := range want {
		if days[code] != expected {
			t.Fatalf("days[%s] = %d, want %d", code, days[code], expected)
		}
	}
}

func TestIsDue(t *testing.T) {
	today := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	daysAgo := func(days int) *time.Time {
		then := today.AddDate(0, 0, -days)
		return &then
	}

	cases := []struct {
		name      string
		triggered *time.Time
		days      int
		want      bool
	}{
		{"never fired", nil, 365, true},
		{"weekly exactly due", daysAgo(7), 7, true},
		{"weekly overdue", daysAgo(10), 7, true},
		{"weekly not yet", daysAgo(6), 7, false},
		{"one-shot with past date", daysAgo(1), 0, true},
		{"quarterly not yet", daysAgo(90), 91, false},
		{"quarterly due", daysAgo(91), 91, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDue(tc.triggered, tc.days, today); got != tc.want {
				t.Fatalf("IsDue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsDueCountsCalendarDays(t *testing.T) {
	// Fired at 18:00; the weekly run seven calendar days later happens at
	// 08:00. Less than 7*24h elapsed, but the task is due that morning.
	triggered := time.Date(2026, 6, 8, 18, 0, 0, 0, time.UTC)
	today := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	if !IsDue(&triggered, 7, today) {
		t.Fatal("weekly task must be due on the seventh calendar day")
	}

	early := time.Date(2026, 6, 9, 1, 0, 0, 0, time.UTC)
	late := time.Date(2026, 6, 15, 23, 0, 0, 0, time.UTC)
	if IsDue(&early, 7, late) {
		t.Fatal("six calendar days of elapsed time is not a week")
	}
}

func TestIsDueFutureTrigger(t *testing.T) {
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	future := today.AddDate(0, 0, 3)
	if IsDue(&future, 0, today) {
		t.Fatal("a one-shot dated in the future must not fire yet")
	}
}
