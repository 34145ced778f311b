package core

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// NewMonthKey builds the key for a year and 1-based month.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKeyOf returns the key of the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return NewMonthKey(t.Year(), int(t.Month()))
}

// YearMonth splits the key back into year and month.
func (k MonthKey) YearMonth() (year, month int, err error) {
	if _, perr := fmt.Sscanf(string(k), "%d-%d", &year, &month); perr != nil {
		return 0, 0, fmt.Errorf("malformed month key %q: %w", string(k), perr)
	}
	if month < 1 || month > 12 {
		return 0, 0, ErrInvalidMonth
	}
	return year, month, nil
}

// DaysInMonth returns the number of days in the given year and 1-based month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the valid range of the given month, so an anchor
// day of 31 resolves to the 28th or 29th in February.
func ClampDay(year, month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// DateIn builds a UTC midnight date inside the given month, clamping the
// day to the month's length.
func DateIn(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), ClampDay(year, month, day), 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped shifts t by n calendar months keeping the day-of-month
// where possible. Unlike time.AddDate, a January 31 start lands on the last
// day of the shorter target month instead of rolling into the next one.
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())
	month += n
	// Normalize month into 1..12 adjusting the year.
	for month > 12 {
		month -= 12
		year++
	}
	for month < 1 {
		month += 12
		year--
	}
	day := ClampDay(year, month, t.Day())
	return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// LastDayOfPreviousMonth returns the final day of the month before t.
func LastDayOfPreviousMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 0, 0, 0, 0, 0, time.UTC)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
