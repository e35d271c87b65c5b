// Package billing derives credit card statement windows from a card's
// closing and due days. Cycles are computed fresh relative to a
// reference instant and never persisted.
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hollisdev/cadence/internal/period"
)

// Cycle is one statement window. Charges dated in [WindowStart,
// WindowEnd) belong to this bill. DueDate is always strictly after
// WindowEnd.
type Cycle struct {
	WindowStart time.Time
	WindowEnd   time.Time
	DueDate     time.Time
}

// Calculate derives the open statement window for a card relative to
// ref.
//
// The close for the reference month is the closing day clamped to the
// month's length. Once the reference date has passed it, the open cycle
// closes next month. The window starts the day after the previous
// close, and the due date lands on the due day in the closing month,
// pushed one month forward whenever that would not fall after the
// close (a due day numerically at or below the closing day belongs to
// the following month).
func Calculate(closingDay, dueDay int, ref time.Time) (Cycle, error) {
	if closingDay < 1 || closingDay > 31 {
		return Cycle{}, fmt.Errorf("closing day %d out of range 1-31", closingDay)
	}
	if dueDay < 1 || dueDay > 31 {
		return Cycle{}, fmt.Errorf("due day %d out of range 1-31", dueDay)
	}

	ref = period.Midnight(ref)
	closeThisMonth := period.DateWithClampedDay(ref.Year(), ref.Month(), closingDay, ref.Location())

	windowEnd := closeThisMonth
	if ref.After(closeThisMonth) {
		next := period.AddMonthsClamped(closeThisMonth, 1)
		// Re-clamp from the configured day, not the possibly clamped
		// current close, so a day-31 card closes Mar 31 after Feb 28.
		windowEnd = period.DateWithClampedDay(next.Year(), next.Month(), closingDay, ref.Location())
	}

	prevMonth := period.AddMonthsClamped(windowEnd, -1)
	prevClose := period.DateWithClampedDay(prevMonth.Year(), prevMonth.Month(), closingDay, ref.Location())
	windowStart := prevClose.AddDate(0, 0, 1)

	due := period.DateWithClampedDay(windowEnd.Year(), windowEnd.Month(), dueDay, ref.Location())
	if !due.After(windowEnd) {
		nextMonth := period.AddMonthsClamped(windowEnd, 1)
		due = period.DateWithClampedDay(nextMonth.Year(), nextMonth.Month(), dueDay, ref.Location())
	}

	return Cycle{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		DueDate:     due,
	}, nil
}

// Contains reports whether a transaction date belongs to this cycle.
// The window is half-open: a date equal to WindowEnd is out.
func (c Cycle) Contains(date time.Time) bool {
	d := period.Midnight(date)
	return !d.Before(c.WindowStart) && d.Before(c.WindowEnd)
}

// Utilization returns spend as a percentage of the credit limit,
// rounded to two places. A zero or negative limit yields zero rather
// than dividing by it.
func Utilization(spend, limit decimal.Decimal) decimal.Decimal {
	if limit.Sign() <= 0 {
		return decimal.Zero
	}
	return spend.Div(limit).Mul(decimal.NewFromInt(100)).Round(2)
}
