package matching

import (
	"strings"
	"time"
)

var referenceDateLayouts = []string{"20060102", "2006-01-02"}

// Battle timestamps arrive as ISO-8601 text; fractional seconds and a trailing
// Z are stripped before parsing, so the written calendar date is what counts.
var battleTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseReferenceDate parses a video upload date (YYYYMMDD or YYYY-MM-DD).
// ok is false for missing or malformed input.
func ParseReferenceDate(value string) (date time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range referenceDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return civilDate(t), true
		}
	}
	return time.Time{}, false
}

// ParseBattleDate extracts the calendar date from a stored battle timestamp.
func ParseBattleDate(value string) (date time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if before, _, found := strings.Cut(value, "."); found {
		value = before
	}
	value = strings.ReplaceAll(value, "Z", "")
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range battleTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return civilDate(t), true
		}
	}
	return time.Time{}, false
}

// civilDate drops the clock and zone, keeping the date as written.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// subtractMonths moves date back by whole calendar months, clamping the day to
// the last day of the target month (Aug 31 minus 6 months is Feb 28/29).
func subtractMonths(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	total := y*12 + int(m) - 1 - months
	year, month := total/12, time.Month(total%12+1)
	if total < 0 && total%12 != 0 {
		year--
		month = time.Month(total%12 + 13)
	}
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// window is the inclusive admissible date range for candidate battles.
type window struct {
	earliest time.Time
	latest   time.Time
}

func newWindow(reference time.Time, months int) window {
	return window{earliest: subtractMonths(reference, months), latest: reference}
}

func (w window) contains(date time.Time) bool {
	return !date.Before(w.earliest) && !date.After(w.latest)
}
