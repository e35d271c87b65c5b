package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantInterval int
		wantErr      bool
	}{
		{"monthly", "monthly", 1, false},
		{"quarterly", "quarterly", 3, false},
		{"semiannual", "semiannual", 6, false},
		{"annual", "annual", 12, false},
		{"empty", "", 0, true},
		{"unknown is not silently monthly", "fortnightly", 0, true},
		{"case sensitive", "Monthly", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchedule(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSchedule(%q) succeeded, want error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tt.raw, err)
			}
			interval, err := s.IntervalMonths()
			if err != nil {
				t.Fatalf("IntervalMonths: %v", err)
			}
			if interval != tt.wantInterval {
				t.Errorf("interval = %d, want %d", interval, tt.wantInterval)
			}
		})
	}
}

func TestTemplateNextDue(t *testing.T) {
	tmpl := ObligationTemplate{
		ID:         "tpl1",
		OwnerID:    "owner1",
		Amount:     decimal.RequireFromString("1200"),
		Kind:       KindExpense,
		Schedule:   ScheduleMonthly,
		AnchorDate: time.Date(2024, time.January, 31, 15, 4, 5, 0, time.UTC),
	}

	next, err := tmpl.NextDue()
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	want := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextDue = %v, want %v (clamped, midnight)", next, want)
	}

	tmpl.Schedule = Schedule("weekly-ish")
	if _, err := tmpl.NextDue(); err == nil {
		t.Error("NextDue with corrupted schedule succeeded, want error")
	}
}

func TestEntityKey(t *testing.T) {
	got := EntityKey("card-due", "card42", "2024-07-05")
	want := "card-due:card42:2024-07-05"
	if got != want {
		t.Errorf("EntityKey = %q, want %q", got, want)
	}
}

func TestInstanceOverdue(t *testing.T) {
	inst := ObligationInstance{
		DueDate: time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC),
		Status:  StatusPending,
	}

	if inst.Overdue(time.Date(2024, time.July, 4, 23, 0, 0, 0, time.UTC)) {
		t.Error("instance due today reported overdue")
	}
	if !inst.Overdue(time.Date(2024, time.July, 5, 0, 30, 0, 0, time.UTC)) {
		t.Error("instance due yesterday not reported overdue")
	}

	inst.Status = StatusPaid
	if inst.Overdue(time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("paid instance reported overdue")
	}
}
