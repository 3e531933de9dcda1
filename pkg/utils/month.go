package utils

import (
	"fmt"
	"time"
)

// MonthLayout is the YYYY-MM form used by every monthly dataset.
const MonthLayout = "2006-01"

// ParseMonth parses a YYYY-MM string strictly, in UTC.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(MonthLayout, s)
}

// MustMonth is ParseMonth for literals known to be valid.
func MustMonth(s string) time.Time {
	t, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatMonth renders t as YYYY-MM.
func FormatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}

// MonthLabel renders a YYYY-MM string as "Jan 2015". Unparseable input is
// returned unchanged.
func MonthLabel(s string) string {
	t, err := ParseMonth(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2006")
}

// LongMonth renders t as "January 2015".
func LongMonth(t time.Time) string {
	return t.Format("January 2006")
}

// ShortMonthYear renders t as "Jan '15".
func ShortMonthYear(t time.Time) string {
	return t.Format("Jan '06")
}

// MonthsBetween counts whole calendar months from a to b.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// AddYearsMonth shifts a YYYY-MM string by n years.
func AddYearsMonth(s string, n int) (string, error) {
	t, err := ParseMonth(s)
	if err != nil {
		return "", err
	}
	return FormatMonth(t.AddDate(n, 0, 0)), nil
}

// DurationLabel describes the span between two YYYY-MM strings, e.g.
// "10 years, 10 months". Zero parts are omitted; an empty span is "0 months".
func DurationLabel(start, end string) string {
	s, err := ParseMonth(start)
	if err != nil {
		return ""
	}
	e, err := ParseMonth(end)
	if err != nil {
		return ""
	}
	n := MonthsBetween(s, e)
	if n < 0 {
		n = 0
	}
	years, months := n/12, n%12
	switch {
	case years == 0:
		return plural(months, "month")
	case months == 0:
		return plural(years, "year")
	default:
		return plural(years, "year") + ", " + plural(months, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
