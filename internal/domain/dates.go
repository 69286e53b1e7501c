package domain

import (
	"strings"
	"time"
)

var (
	yearFirstLayouts = []string{"2006-1-2", "2006/1/2", "2006.1.2"}

	dayFirstLayouts = []string{
		"2/1/2006", "2-1-2006", "2.1.2006",
		"2/1/06", "2-1-06", "2.1.06",
	}

	monthNameLayouts = []string{
		"2-Jan-2006", "2 Jan 2006", "2/Jan/2006",
		"2-Jan-06", "2 Jan 06", "2/Jan/06",
	}

	monthFirstLayouts = []string{
		"1/2/2006", "1-2-2006", "1.2.2006",
		"1/2/06", "1-2-06", "1.2.06",
	}

	// weatherFallbackLayouts covers timestamps written by other tools.
	weatherFallbackLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-1-2",
		"2006/1/2",
	}
)

// CanonicalFlightDate parses a flight date with day-before-month precedence
// and returns it as "YYYY-MM-DD". Year-first input is accepted as is. When
// the day-first reading is impossible the month-first reading is used. A
// trailing time of day is ignored, and an abbreviated month name
// ("1 Feb 2024", "01-Feb-2024") is read day first. Unparsable input yields "".
func CanonicalFlightDate(s string) string {
	if d, ok := parseMonthName(s); ok {
		return d.Format(DateLayout)
	}
	date := datePart(s)
	if date == "" {
		return ""
	}
	for _, group := range [][]string{yearFirstLayouts, dayFirstLayouts, monthFirstLayouts} {
		if d, ok := parseAny(date, group); ok {
			return d.Format(DateLayout)
		}
	}
	return ""
}

// CanonicalWeatherDate parses a cache-file date in two steps: the canonical
// "YYYY-MM-DD" layout first, then a fixed list of timestamp layouts.
// Unparsable input yields "".
func CanonicalWeatherDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d.Format(DateLayout)
	}
	if d, ok := parseAny(s, weatherFallbackLayouts); ok {
		return d.Format(DateLayout)
	}
	return ""
}

// datePart drops a trailing time of day: "01/02/2024 00:00" and
// "2024-02-01T00:00:00" both reduce to their date.
func datePart(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	return s
}

// parseMonthName reads day-first dates with an abbreviated month name,
// ignoring a trailing time of day.
func parseMonthName(s string) (time.Time, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	if len(fields) >= 3 {
		if d, ok := parseAny(strings.Join(fields[:3], " "), monthNameLayouts); ok {
			return d, true
		}
	}
	return parseAny(fields[0], monthNameLayouts)
}

func parseAny(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
