package core

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidYear  = errors.New("invalid year")
	ErrInvalidMonth = errors.New("invalid month")
)

// DateRange is an inclusive window. End carries a 23:59:59 time component
// so that any instant on the last day is inside the range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ResolveDateRange computes the window for a year and an optional month.
// A zero year means the year of now, a zero month means "no month".
//
// Without a month the window is the whole year, except for the current
// year where it stops at today.
func ResolveDateRange(now time.Time, year, month int) (DateRange, error) {
	if year < 0 {
		return DateRange{}, ErrInvalidYear
	}
	if month < 0 || month > 12 {
		return DateRange{}, ErrInvalidMonth
	}
	loc := now.Location()
	if year == 0 {
		year = now.Year()
	}

	if month > 0 {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		// day 0 of the next month is the last day of this one
		last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: endOfDay(last)}, nil
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	if year == now.Year() {
		return DateRange{Start: start, End: endOfDay(now)}, nil
	}
	return DateRange{Start: start, End: endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc))}, nil
}

// FullYearRange returns Jan 1 through Dec 31 of year regardless of today.
func FullYearRange(year int, loc *time.Location) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:   endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc)),
	}
}

// MonthsToConsider is the divisor for the monthly average: the months
// elapsed so far for the current year, 12 otherwise.
func MonthsToConsider(now time.Time, year int) int {
	if year == 0 || year == now.Year() {
		return int(now.Month())
	}
	return 12
}

// Contains reports whether t falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// StartDay and EndDay format the bounds at day granularity.
func (r DateRange) StartDay() string { return r.Start.Format(DateLayout) }
func (r DateRange) EndDay() string   { return r.End.Format(DateLayout) }

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
