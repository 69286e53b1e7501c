package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-date format used for requests, cache
// files and join keys.
const DateLayout = "2006-01-02"

// Period is a closed date interval [Start, End] at day granularity, in UTC.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(DateLayout), p.End.Format(DateLayout))
}

// Contains reports whether the calendar day d falls within the period.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of calendar days covered, inclusive.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// MonthlyPeriods partitions [start, end] into calendar-month periods. The
// first period begins at start, every later one on the 1st of its month, and
// the last is truncated at end. Returns nil when end precedes start.
func MonthlyPeriods(start, end time.Time) []Period {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil
	}

	var periods []Period
	for cur := start; !cur.After(end); {
		firstOfNext := time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		last := firstOfNext.AddDate(0, 0, -1)
		if last.After(end) {
			last = end
		}
		periods = append(periods, Period{Start: cur, End: last})
		cur = firstOfNext
	}
	return periods
}

// FetchPeriods returns the monthly partition of [start, end], or the whole
// range as a single period when monthly is false.
func FetchPeriods(start, end time.Time, monthly bool) []Period {
	if monthly {
		return MonthlyPeriods(start, end)
	}
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil
	}
	return []Period{{Start: start, End: end}}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
