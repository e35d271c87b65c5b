package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name            string
		closingDay      int
		dueDay          int
		ref             time.Time
		wantWindowStart time.Time
		wantWindowEnd   time.Time
		wantDueDate     time.Time
	}{
		{
			name:            "before closing day stays in current month",
			closingDay:      25,
			dueDay:          5,
			ref:             date(2024, time.July, 10),
			wantWindowStart: date(2024, time.June, 26),
			wantWindowEnd:   date(2024, time.July, 25),
			wantDueDate:     date(2024, time.August, 5),
		},
		{
			name:            "day after close rolls window into next month",
			closingDay:      25,
			dueDay:          5,
			ref:             date(2024, time.July, 26),
			wantWindowStart: date(2024, time.July, 26),
			wantWindowEnd:   date(2024, time.August, 25),
			wantDueDate:     date(2024, time.September, 5),
		},
		{
			name:            "reference exactly on close keeps current window",
			closingDay:      25,
			dueDay:          5,
			ref:             date(2024, time.July, 25),
			wantWindowStart: date(2024, time.June, 26),
			wantWindowEnd:   date(2024, time.July, 25),
			wantDueDate:     date(2024, time.August, 5),
		},
		{
			name:            "due day after closing day stays in closing month",
			closingDay:      5,
			dueDay:          15,
			ref:             date(2024, time.July, 3),
			wantWindowStart: date(2024, time.June, 6),
			wantWindowEnd:   date(2024, time.July, 5),
			wantDueDate:     date(2024, time.July, 15),
		},
		{
			name:            "closing day 31 clamps in february",
			closingDay:      31,
			dueDay:          10,
			ref:             date(2023, time.February, 10),
			wantWindowStart: date(2023, time.February, 1),
			wantWindowEnd:   date(2023, time.February, 28),
			wantDueDate:     date(2023, time.March, 10),
		},
		{
			name:            "window past clamped february close recovers day 31",
			closingDay:      31,
			dueDay:          10,
			ref:             date(2023, time.March, 1),
			wantWindowStart: date(2023, time.March, 1),
			wantWindowEnd:   date(2023, time.March, 31),
			wantDueDate:     date(2023, time.April, 10),
		},
		{
			name:            "due day equal to closing day pushes a month out",
			closingDay:      20,
			dueDay:          20,
			ref:             date(2024, time.July, 1),
			wantWindowStart: date(2024, time.June, 21),
			wantWindowEnd:   date(2024, time.July, 20),
			wantDueDate:     date(2024, time.August, 20),
		},
		{
			name:            "leap year february close",
			closingDay:      30,
			dueDay:          8,
			ref:             date(2024, time.February, 15),
			wantWindowStart: date(2024, time.January, 31),
			wantWindowEnd:   date(2024, time.February, 29),
			wantDueDate:     date(2024, time.March, 8),
		},
		{
			name:            "december close rolls into january",
			closingDay:      25,
			dueDay:          5,
			ref:             date(2024, time.December, 28),
			wantWindowStart: date(2024, time.December, 26),
			wantWindowEnd:   date(2025, time.January, 25),
			wantDueDate:     date(2025, time.February, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycle, err := Calculate(tt.closingDay, tt.dueDay, tt.ref)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if !cycle.WindowStart.Equal(tt.wantWindowStart) {
				t.Errorf("WindowStart = %v, want %v", cycle.WindowStart, tt.wantWindowStart)
			}
			if !cycle.WindowEnd.Equal(tt.wantWindowEnd) {
				t.Errorf("WindowEnd = %v, want %v", cycle.WindowEnd, tt.wantWindowEnd)
			}
			if !cycle.DueDate.Equal(tt.wantDueDate) {
				t.Errorf("DueDate = %v, want %v", cycle.DueDate, tt.wantDueDate)
			}
		})
	}
}

func TestCalculateDueAlwaysAfterClose(t *testing.T) {
	// The due date must never be on or before the close of the cycle it
	// pays for, whatever combination of days a card carries.
	refs := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 29),
		date(2023, time.February, 28),
		date(2024, time.July, 31),
		date(2024, time.December, 31),
	}
	for closingDay := 1; closingDay <= 31; closingDay++ {
		for dueDay := 1; dueDay <= 31; dueDay++ {
			for _, ref := range refs {
				cycle, err := Calculate(closingDay, dueDay, ref)
				if err != nil {
					t.Fatalf("Calculate(%d, %d, %v): %v", closingDay, dueDay, ref, err)
				}
				if !cycle.DueDate.After(cycle.WindowEnd) {
					t.Fatalf("Calculate(%d, %d, %v): due %v not after close %v",
						closingDay, dueDay, ref, cycle.DueDate, cycle.WindowEnd)
				}
			}
		}
	}
}

func TestCalculateRejectsBadDays(t *testing.T) {
	if _, err := Calculate(0, 5, date(2024, time.July, 1)); err == nil {
		t.Error("closing day 0 accepted")
	}
	if _, err := Calculate(32, 5, date(2024, time.July, 1)); err == nil {
		t.Error("closing day 32 accepted")
	}
	if _, err := Calculate(25, 0, date(2024, time.July, 1)); err == nil {
		t.Error("due day 0 accepted")
	}
}

func TestCycleContains(t *testing.T) {
	cycle, err := Calculate(25, 5, date(2024, time.July, 10))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"inside window", date(2024, time.July, 1), true},
		{"first day of window", date(2024, time.June, 26), true},
		{"closing day itself belongs to next cycle", date(2024, time.July, 25), false},
		{"before window", date(2024, time.June, 25), false},
		{"after window", date(2024, time.August, 1), false},
		{"time of day ignored", time.Date(2024, time.July, 24, 23, 59, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cycle.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestUtilization(t *testing.T) {
	got := Utilization(decimal.RequireFromString("450"), decimal.RequireFromString("1000"))
	if !got.Equal(decimal.RequireFromString("45")) {
		t.Errorf("Utilization = %s, want 45", got)
	}
	if !Utilization(decimal.RequireFromString("100"), decimal.Zero).IsZero() {
		t.Error("zero limit should yield zero utilization")
	}
}
