package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// ScheduleError rejects a command schedule. The sticker keeps its previous
// schedule.
type ScheduleError struct {
	Schedule CommandSchedule
	Err      error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule %s: %v", e.Schedule, e.Err)
}

func (e *ScheduleError) Unwrap() error { return e.Err }

// Validate checks a command schedule: a positive interval of at least
// MinInterval, or a cron expression that fires within a year. Cron takes
// the five standard fields, optionally preceded by a seconds field.
func Validate(c CommandSchedule) error {
	expr := strings.TrimSpace(c.Cron)
	switch {
	case c.Interval != 0 && expr != "":
		return &ScheduleError{Schedule: c, Err: errors.New("interval and cron are mutually exclusive")}
	case expr != "":
		if n := len(strings.Fields(expr)); n != 5 && n != 6 {
			return &ScheduleError{Schedule: c, Err: fmt.Errorf("cron expression must have 5 or 6 fields, got %d", n)}
		}
		if !gronx.IsValid(expr) {
			return &ScheduleError{Schedule: c, Err: errors.New("malformed cron expression")}
		}
		if !hasOccurrenceWithinYear(expr, time.Now()) {
			return &ScheduleError{Schedule: c, Err: errors.New("cron expression never fires within a year")}
		}
	case c.Interval < 0:
		return &ScheduleError{Schedule: c, Err: errors.New("interval must be positive")}
	case c.Interval == 0:
		return &ScheduleError{Schedule: c, Err: errors.New("empty schedule")}
	case c.Interval < MinInterval:
		return &ScheduleError{Schedule: c, Err: fmt.Errorf("interval must be at least %s", MinInterval)}
	}
	return nil
}

// firstRun returns the first deadline of a newly registered command whose
// previous run started at lastRun (zero if it never ran). A deadline in the
// past means the run was missed and is due immediately.
func firstRun(c CommandSchedule, lastRun, now time.Time) (time.Time, error) {
	if c.Cron != "" {
		from := now
		if !lastRun.IsZero() {
			from = lastRun
		}
		next, err := nextCronOccurrence(c.Cron, from)
		if err != nil {
			return time.Time{}, err
		}
		if next.Before(now) {
			return now, nil
		}
		return next, nil
	}
	if lastRun.IsZero() {
		return now.Add(c.Interval), nil
	}
	return lastRun.Add(c.Interval), nil
}

// runStart decides when a run that was due at due and is being started at
// now counts as having started. Slight lateness keeps the interval grid; a
// miss of a full interval or more collapses onto now.
func runStart(c CommandSchedule, due, now time.Time) time.Time {
	if c.Cron != "" || now.Sub(due) >= c.Interval {
		return now
	}
	return due
}

// nextRun returns the deadline following a run that started at start.
func nextRun(c CommandSchedule, start time.Time) (time.Time, error) {
	if c.Cron != "" {
		return nextCronOccurrence(c.Cron, start)
	}
	return start.Add(c.Interval), nil
}

// nextCronOccurrence returns the next time the cron expression fires strictly
// after start.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	next, err := gronx.NextTickAfter(expr, start, false)
	if err != nil {
		return time.Time{}, err
	}
	return wall(next), nil
}

// hasOccurrenceWithinYear reports whether expr fires within a year of from.
func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}

// wall strips the monotonic reading so comparisons use the wall clock.
func wall(t time.Time) time.Time {
	return t.Round(0)
}
