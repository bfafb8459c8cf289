package domain

import (
	"fmt"
	"time"
)

// Date is a calendar date in YYYY-MM-DD form, with no time component.
// The textual form compares lexically in chronological order, which the
// repository layer relies on for range queries and ordering.
type Date string

// ParseDate validates and returns a Date from its YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(s), nil
}

// DateOf truncates a timestamp to its calendar date in the timestamp's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(time.DateOnly))
}

func (d Date) String() string { return string(d) }

// Time returns midnight UTC of the date. Zero Date yields the zero time.
func (d Date) Time() time.Time {
	if d == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.DateOnly, string(d))
	return t
}
