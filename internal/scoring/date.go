package scoring

import (
	"fmt"
	"time"
)

// DateLayout is the storage format of activity dates.
const DateLayout = "2006-01-02"

// Day returns t's UTC calendar date at midnight. Streaks are counted in UTC
// days for every user.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of UTC calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// FormatDate renders t's UTC date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date. Full RFC 3339 timestamps are also
// accepted and reduced to their UTC date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse activity date %q: %w", s, err)
	}
	return Day(t), nil
}
