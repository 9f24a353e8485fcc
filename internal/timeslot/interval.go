package timeslot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDay is returned for a day of week outside 1..7.
	ErrInvalidDay = errors.New("day_of_week must be between 1 (Monday) and 7 (Sunday)")
	// ErrEmptyInterval is returned when start is not strictly before end.
	ErrEmptyInterval = errors.New("start_time must be before end_time")
	// ErrDayMismatch is returned when a dated interval names a different weekday than its date.
	ErrDayMismatch = errors.New("day_of_week does not match the calendar date")
)

// Interval is a half-open [Start, End) range on one day. Recurring weekly slots leave Date nil.
type Interval struct {
	DayOfWeek int   `json:"day_of_week"`
	Date      *Date `json:"date,omitempty"`
	Start     Clock `json:"start_time"`
	End       Clock `json:"end_time"`
}

// Weekly builds a recurring interval.
func Weekly(day int, start, end Clock) Interval {
	return Interval{DayOfWeek: day, Start: start, End: end}
}

// Dated builds an interval pinned to a calendar date.
func Dated(date Date, start, end Clock) Interval {
	d := date
	return Interval{DayOfWeek: date.Weekday(), Date: &d, Start: start, End: end}
}

// Validate rejects out of range days, zero-length or inverted ranges and dated intervals whose
// weekday disagrees with their date.
func (i Interval) Validate() error {
	if i.DayOfWeek < 1 || i.DayOfWeek > 7 {
		return ErrInvalidDay
	}
	if i.Start >= i.End {
		return fmt.Errorf("%w (got %s-%s)", ErrEmptyInterval, i.Start, i.End)
	}
	if i.Date != nil && i.Date.Weekday() != i.DayOfWeek {
		return ErrDayMismatch
	}
	return nil
}

// Empty reports whether the interval covers no time.
func (i Interval) Empty() bool {
	return i.Start >= i.End
}

// SameDay reports whether both intervals fall on the same day. Two dated intervals need the same
// date and weekday; a recurring interval shares a day with anything on its weekday.
func (i Interval) SameDay(other Interval) bool {
	if i.DayOfWeek != other.DayOfWeek {
		return false
	}
	if i.Date != nil && other.Date != nil {
		return i.Date.Equal(*other.Date)
	}
	return true
}

// Overlaps applies the half-open overlap test. Touching boundaries do not overlap and empty
// intervals never overlap anything.
func (i Interval) Overlaps(other Interval) bool {
	if i.Empty() || other.Empty() {
		return false
	}
	return i.SameDay(other) && i.Start < other.End && i.End > other.Start
}

// String renders the interval for log lines and messages.
func (i Interval) String() string {
	if i.Date != nil {
		return fmt.Sprintf("%s %s-%s", i.Date, i.Start, i.End)
	}
	return fmt.Sprintf("day %d %s-%s", i.DayOfWeek, i.Start, i.End)
}
