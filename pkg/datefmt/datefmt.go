// Package datefmt normalizes the host console's date-time strings.
//
// The console renders second-precision timestamps ("2026-01-28 08:02:37")
// while its filter inputs accept minute precision. To keep a minute-granular
// range from excluding the original record, the lower bound is floored
// (seconds dropped) and the upper bound is ceilinged (rounded up one minute).
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const (
	// CanonicalMinute is the minute-precision layout used by the filter inputs.
	CanonicalMinute = "2006-01-02 15:04"

	// CanonicalSecond is the second-precision layout rendered in table cells.
	CanonicalSecond = "2006-01-02 15:04:05"
)

// TruncateToMinute drops the seconds from a "YYYY-MM-DD HH:mm:ss" string by
// keeping its first 16 characters. Shorter inputs are returned unchanged.
func TruncateToMinute(s string) string {
	if len(s) < 16 {
		return s
	}
	return s[:16]
}

// RoundUpMinute parses s as a local date-time, adds one minute, zeroes the
// seconds, and reformats at minute precision. Unparseable input falls back
// to TruncateToMinute.
func RoundUpMinute(s string) string {
	t, err := ParseCanonical(s)
	if err != nil {
		return TruncateToMinute(s)
	}

	t = t.Add(time.Minute)
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	return t.Format(CanonicalMinute)
}

// BackendTimestamp formats t as the fixed-width numeric encoding consumed by
// the screenshots backend: YYYYMMDDHHmmss plus three zero milliseconds digits.
func BackendTimestamp(t time.Time) string {
	return t.Format("20060102150405") + "000"
}

// ParseCanonical parses "YYYY-MM-DD[ HH[:mm[:ss]]]" in local time. Missing
// time components default to zero. Parsing is layout-driven and never
// locale-sensitive.
func ParseCanonical(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("datefmt: empty date string")
	}

	layouts := []string{
		CanonicalSecond,
		CanonicalMinute,
		"2006-01-02 15",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("datefmt: unrecognized date string %q", s)
}
