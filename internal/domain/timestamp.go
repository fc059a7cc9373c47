package domain

import (
	"strings"
	"time"
)

// UnknownDay is the day bucket used for trades without an entry timestamp.
const UnknownDay = "unknown"

// Layouts accepted for trade timestamps, most specific first. The editor
// submits datetime-local values ("2006-01-02T15:04") without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Zoneless values are read as UTC
// so results never depend on the host time zone. ok is false for empty or
// malformed input.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way new trades are stamped (UTC, millisecond precision).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// DayKey returns the calendar-day bucket of an entry timestamp: its first ten
// characters, or UnknownDay when absent. The string is not validated, so a
// malformed timestamp lands in a bucket of its own.
func DayKey(ts string) string {
	if ts == "" {
		return UnknownDay
	}
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

// MonthKey returns the YYYY-MM bucket of an entry timestamp, or UnknownDay when absent.
func MonthKey(ts string) string {
	if ts == "" {
		return UnknownDay
	}
	if len(ts) > 7 {
		return ts[:7]
	}
	return ts
}
