package domain

import (
	"fmt"
	"time"
)

// WeekKey identifies one Monday-start ISO week.
type WeekKey struct {
	Year int
	Week int
}

// WeekKeyOf maps a timestamp to its ISO week key. Evaluation happens in UTC
// so two timestamps in the same calendar week share a key regardless of
// time-of-day.
func WeekKeyOf(t time.Time) WeekKey {
	year, week := t.UTC().ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// DayOfWeekOf maps a timestamp to the calendar day it falls on, evaluated in
// UTC.
func DayOfWeekOf(t time.Time) time.Weekday {
	return t.UTC().Weekday()
}

// Start returns the Monday 00:00:00 UTC instant the week begins on.
func (k WeekKey) Start() time.Time {
	// January 4 always falls inside ISO week 1 of its year.
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, 1-weekday)
	return monday.AddDate(0, 0, (k.Week-1)*7)
}

// Prev returns the key of the preceding calendar week.
func (k WeekKey) Prev() WeekKey {
	return WeekKeyOf(k.Start().AddDate(0, 0, -7))
}

// Next returns the key of the following calendar week.
func (k WeekKey) Next() WeekKey {
	return WeekKeyOf(k.Start().AddDate(0, 0, 7))
}

// Before reports whether k is an earlier calendar week than other.
func (k WeekKey) Before(other WeekKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Week < other.Week
}

// String renders the key in ISO 8601 week notation, e.g. "2026-W06".
func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// ParseWeekKey parses ISO 8601 week notation, e.g. "2026-W06".
func ParseWeekKey(s string) (WeekKey, error) {
	var year, week int
	if _, err := fmt.Sscanf(s, "%d-W%d", &year, &week); err != nil {
		return WeekKey{}, fmt.Errorf("parse week key %q: %w", s, err)
	}
	if year < 1 || week < 1 || week > 53 {
		return WeekKey{}, fmt.Errorf("parse week key %q: out of range", s)
	}
	return WeekKey{Year: year, Week: week}, nil
}

// MarshalText implements encoding.TextMarshaler so week keys serialize in ISO
// notation, including as JSON map keys.
func (k WeekKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WeekKey) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// WindowEnding returns the n most recent week keys ending at last, oldest
// first. n of zero or less yields an empty window.
func WindowEnding(last WeekKey, n int) []WeekKey {
	if n <= 0 {
		return nil
	}
	keys := make([]WeekKey, n)
	k := last
	for i := n - 1; i >= 0; i-- {
		keys[i] = k
		k = k.Prev()
	}
	return keys
}
