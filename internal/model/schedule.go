package model

import "fmt"

// Schedule is the closed set of recurrence frequencies a template may
// carry. Free-form strings are validated at the boundary; an
// unrecognized schedule is an error, never silently treated as monthly.
type Schedule string

// Supported schedules.
const (
	ScheduleMonthly    Schedule = "monthly"
	ScheduleQuarterly  Schedule = "quarterly"
	ScheduleSemiannual Schedule = "semiannual"
	ScheduleAnnual     Schedule = "annual"
)

var scheduleIntervals = map[Schedule]int{
	ScheduleMonthly:    1,
	ScheduleQuarterly:  3,
	ScheduleSemiannual: 6,
	ScheduleAnnual:     12,
}

// ParseSchedule validates a raw schedule string.
func ParseSchedule(raw string) (Schedule, error) {
	s := Schedule(raw)
	if _, ok := scheduleIntervals[s]; !ok {
		return "", fmt.Errorf("unrecognized schedule %q", raw)
	}
	return s, nil
}

// IntervalMonths returns the number of months between occurrences.
func (s Schedule) IntervalMonths() (int, error) {
	interval, ok := scheduleIntervals[s]
	if !ok {
		return 0, fmt.Errorf("unrecognized schedule %q", string(s))
	}
	return interval, nil
}

// Valid reports whether the schedule is one of the supported values.
func (s Schedule) Valid() bool {
	_, ok := scheduleIntervals[s]
	return ok
}
