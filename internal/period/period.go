// Package period provides calendar-day date arithmetic for recurring
// schedules: month addition with end-of-month clamping, period bucketing,
// and day-granularity comparisons.
package period

import (
	"fmt"
	"time"
)

// Midnight truncates an instant to the start of its calendar day.
// All schedule comparisons happen at day granularity so that client
// clock skew within a day never changes the outcome.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateWithClampedDay builds a date in the given month, clamping the day
// to the last valid day when the month is shorter.
func DateWithClampedDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := LastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// AddMonthsClamped adds n calendar months to a date. When the original
// day-of-month does not exist in the target month (Jan 31 + 1 month),
// the result clamps to the last valid day of that month instead of
// spilling into the following month the way time.AddDate does.
//
// Callers advancing a schedule must always re-derive from the original
// day, not from a previously clamped result, or a monthly schedule
// anchored on the 31st silently collapses to the 28th forever.
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month := t.Year(), t.Month()
	total := int(month) - 1 + n
	year += total / 12
	month = time.Month(total%12 + 1)
	if total < 0 && total%12 != 0 {
		year--
		month = time.Month(total%12 + 13)
	}
	return DateWithClampedDay(year, month, t.Day(), t.Location())
}

// Key returns the bucket identifier for the window containing t under a
// schedule with the given interval in months. Two dates map to the same
// key iff they fall in the same period. Monthly buckets look like
// "2024-07"; longer intervals use the month the window starts in, so a
// quarterly key is always "2024-01", "2024-04", "2024-07" or "2024-10".
func Key(t time.Time, intervalMonths int) string {
	start := Start(t, intervalMonths)
	return fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month()))
}

// Start returns the first day of the period containing t.
func Start(t time.Time, intervalMonths int) time.Time {
	if intervalMonths < 1 {
		intervalMonths = 1
	}
	bucket := (int(t.Month()) - 1) / intervalMonths * intervalMonths
	return time.Date(t.Year(), time.Month(bucket+1), 1, 0, 0, 0, 0, t.Location())
}

// Bounds returns the half-open [start, end) window of the period
// containing t.
func Bounds(t time.Time, intervalMonths int) (start, end time.Time) {
	start = Start(t, intervalMonths)
	return start, start.AddDate(0, intervalMonths, 0)
}
