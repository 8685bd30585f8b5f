package timeutil

import (
	"fmt"
	"time"
)

// Location is the business time zone. Order numbers, movement dates and
// closing months are all evaluated in it.
var Location *time.Location = time.UTC

// SetLocation switches the business time zone
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("failed to load time zone %q: %w", name, err)
	}
	Location = loc
	return nil
}

// nowFunc is replaced in tests that need a fixed clock
var nowFunc = time.Now

// Now returns the current time in the business zone
func Now() time.Time {
	return nowFunc().In(Location)
}

// SetClock overrides the clock and returns a function restoring it
func SetClock(fn func() time.Time) func() {
	prev := nowFunc
	nowFunc = fn
	return func() { nowFunc = prev }
}

// In converts any time to the business zone
func In(t time.Time) time.Time {
	return t.In(Location)
}

// ParseDate parses a YYYY-MM-DD date at midnight in the business zone
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Location)
}

// StartOfDay returns 00:00:00 of t's day in the business zone
func StartOfDay(t time.Time) time.Time {
	lt := t.In(Location)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Location)
}

// StartOfMonth returns the first instant of t's month in the business zone
func StartOfMonth(t time.Time) time.Time {
	lt := t.In(Location)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, Location)
}

const (
	DateLayout      = "2006-01-02"
	DateTimeLayout  = "2006-01-02 15:04:05"
	OrderDayLayout  = "20060102"
	YearMonthLayout = "200601"
)
