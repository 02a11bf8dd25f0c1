// Package timeslot holds the calendar primitives of the engine: dates at
// day precision, clock values as minutes from midnight, and the half-open
// interval overlap test every conflict decision is built on.
package timeslot

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the single wire format for dates. Anything else is an
// input error, not a fallback.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock parses an H:MM or HH:MM clock value into minutes from
// midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time %q: expected H:MM", s)
	}
	// The minute field must be exactly two digits.
	if len(s) < 4 || len(s) > 5 || strings.IndexByte(s, ':') != len(s)-3 {
		return 0, fmt.Errorf("parse time %q: expected H:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse time %q: expected H:MM", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as HH:MM.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Truncate drops the time-of-day component, keeping the UTC date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Interval is a half-open [StartMin, EndMin) range on a single day.
// Intervals never span midnight.
type Interval struct {
	Date     time.Time
	StartMin int
	EndMin   int
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int {
	return iv.EndMin - iv.StartMin
}

// Overlaps reports whether two intervals share any time. Touching
// intervals (a.EndMin == b.StartMin) do not overlap.
func Overlaps(a, b Interval) bool {
	if !a.Date.Equal(b.Date) {
		return false
	}
	return a.StartMin < b.EndMin && b.StartMin < a.EndMin
}
