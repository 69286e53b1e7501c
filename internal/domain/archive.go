package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"
)

// DailyVariables are the daily series requested from the archive, in the
// order they are written to cache files.
var DailyVariables = []string{
	"weather_code",
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
	"wind_speed_10m_max",
	"wind_gusts_10m_max",
	"wind_direction_10m_dominant",
	"shortwave_radiation_sum",
	"uv_index_max",
}

// ArchiveKind tags the variant held by an ArchiveResult.
type ArchiveKind int

const (
	ArchiveSuccess ArchiveKind = iota
	ArchiveRateLimited
	ArchiveRequestFailed
)

func (k ArchiveKind) String() string {
	switch k {
	case ArchiveSuccess:
		return "success"
	case ArchiveRateLimited:
		return "rate_limited"
	case ArchiveRequestFailed:
		return "request_failed"
	default:
		return "unknown"
	}
}

// ArchiveResult is the outcome of a single archive request:
// Success(Body) | RateLimited | RequestFailed(Err).
type ArchiveResult struct {
	Kind ArchiveKind
	Body map[string]json.RawMessage
	Err  error
}

// Archive issues one bounded request for a station's daily series over a period.
// Implementations never retry.
type Archive interface {
	FetchDaily(ctx context.Context, station Station, period Period) ArchiveResult
}

// DailySeries is a station's daily variables keyed by calendar date.
// Values[name][i] belongs to Dates[i]; a nil entry is a null reading.
type DailySeries struct {
	Dates     []time.Time
	Variables []string
	Values    map[string][]*float64
}

// Len returns the number of days in the series.
func (s DailySeries) Len() int { return len(s.Dates) }

// ParseDailySeries extracts the "daily" object of an archive payload. It
// returns ErrMalformedResponse when the object or its "time" array is
// missing, when a date does not parse, or when array lengths disagree.
func ParseDailySeries(body map[string]json.RawMessage) (DailySeries, error) {
	rawDaily, ok := body["daily"]
	if !ok {
		return DailySeries{}, fmt.Errorf("%w: no daily field, keys %v", ErrMalformedResponse, sortedKeys(body))
	}

	var daily map[string]json.RawMessage
	if err := json.Unmarshal(rawDaily, &daily); err != nil {
		return DailySeries{}, fmt.Errorf("%w: daily: %v", ErrMalformedResponse, err)
	}

	rawTime, ok := daily["time"]
	if !ok {
		return DailySeries{}, fmt.Errorf("%w: daily without time, keys %v", ErrMalformedResponse, sortedKeys(daily))
	}

	var times []string
	if err := json.Unmarshal(rawTime, &times); err != nil {
		return DailySeries{}, fmt.Errorf("%w: daily.time: %v", ErrMalformedResponse, err)
	}

	series := DailySeries{
		Dates:  make([]time.Time, len(times)),
		Values: make(map[string][]*float64, len(daily)-1),
	}
	for i, ts := range times {
		d, err := time.Parse(DateLayout, ts)
		if err != nil {
			return DailySeries{}, fmt.Errorf("%w: daily.time[%d] %q", ErrMalformedResponse, i, ts)
		}
		series.Dates[i] = d
	}

	for name, raw := range daily {
		if name == "time" {
			continue
		}
		var vals []*float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return DailySeries{}, fmt.Errorf("%w: daily.%s: %v", ErrMalformedResponse, name, err)
		}
		if len(vals) != len(times) {
			return DailySeries{}, fmt.Errorf("%w: daily.%s has %d values for %d days",
				ErrMalformedResponse, name, len(vals), len(times))
		}
		series.Values[name] = vals
	}
	series.Variables = orderVariables(series.Values)

	return series, nil
}

// CheckPeriod returns ErrMalformedResponse when a day of the series lies
// outside p.
func (s DailySeries) CheckPeriod(p Period) error {
	for _, d := range s.Dates {
		if !p.Contains(d) {
			return fmt.Errorf("%w: day %s outside requested %s", ErrMalformedResponse, d.Format(DateLayout), p)
		}
	}
	return nil
}

// ConcatSeries joins per-period series in the given order. A day that
// repeats keeps its first occurrence, so each date appears once. Variables
// missing from a period are null-filled for its days.
func ConcatSeries(parts []DailySeries) DailySeries {
	out := DailySeries{Values: make(map[string][]*float64)}
	seen := make(map[string]bool)
	for _, p := range parts {
		for _, name := range p.Variables {
			if _, ok := out.Values[name]; !ok {
				out.Values[name] = make([]*float64, len(out.Dates))
			}
		}
		for i, d := range p.Dates {
			day := d.Format(DateLayout)
			if seen[day] {
				continue
			}
			seen[day] = true
			out.Dates = append(out.Dates, d)
			for name, vals := range out.Values {
				var v *float64
				if pv, ok := p.Values[name]; ok && i < len(pv) {
					v = pv[i]
				}
				out.Values[name] = append(vals, v)
			}
		}
	}
	out.Variables = orderVariables(out.Values)
	return out
}

// CacheTable renders the series in cache-file layout:
// time, one column per variable, iata.
func (s DailySeries) CacheTable(station string) Table {
	cols := make([]string, 0, len(s.Variables)+2)
	cols = append(cols, "time")
	cols = append(cols, s.Variables...)
	cols = append(cols, "iata")

	code := CanonicalCode(station)
	rows := make([][]string, len(s.Dates))
	for i, d := range s.Dates {
		row := make([]string, 0, len(cols))
		row = append(row, d.Format(DateLayout))
		for _, name := range s.Variables {
			row = append(row, formatReading(s.Values[name][i]))
		}
		row = append(row, code)
		rows[i] = row
	}
	return Table{Columns: cols, Rows: rows}
}

func formatReading(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// orderVariables puts the requested variables first, in request order,
// followed by any extra keys sorted by name.
func orderVariables(values map[string][]*float64) []string {
	out := make([]string, 0, len(values))
	for _, name := range DailyVariables {
		if _, ok := values[name]; ok {
			out = append(out, name)
		}
	}
	var extra []string
	for name := range values {
		if !slices.Contains(DailyVariables, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
