// Package join reconciles flight records with cached daily weather.
package join

import (
	"sort"
	"strconv"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// collisionSuffix is appended to a weather column whose name is already
// used by the flight table.
const collisionSuffix = "_weather"

// Result is the output of Merge together with run statistics.
type Result struct {
	Artifacts domain.JoinArtifacts

	FlightsTotal    int
	FlightsSelected int
	Matched         int
	WeatherRows     int
	Found           []string
	Missing         []string
}

// Merge left-joins flights against weather on (origin, flight_date_str) =
// (iata, date_str). Only flights whose origin is in stations take part, and
// each of them yields exactly one merged row.
//
// Weather rows are deduplicated per (iata, date_str) before the join, keeping
// the first row in stacking order. Rows with an empty station or date never
// match. found lists the stations whose cache files were read.
func Merge(flights, weather domain.Table, found, stations []string) Result {
	allow := make(map[string]bool, len(stations))
	for _, s := range stations {
		allow[domain.CanonicalCode(s)] = true
	}
	foundSet := make(map[string]bool, len(found))
	for _, s := range found {
		foundSet[domain.CanonicalCode(s)] = true
	}

	selected := selectFlights(flights, allow)

	res := Result{
		FlightsTotal:    flights.Len(),
		FlightsSelected: selected.Len(),
		WeatherRows:     weather.Len(),
		Found:           append([]string(nil), found...),
		Missing:         missingStations(allow, foundSet),
	}
	res.Artifacts.MissingOrigins = singleColumn(domain.ColIATA, res.Missing)
	res.Artifacts.FlightCounts = countByOrigin(selected)

	if weather.Len() == 0 {
		res.Artifacts.Merged = selected
		res.Artifacts.MissingMatches = domain.Table{Columns: selected.Columns}
		return res
	}

	index := dedupIndex(weather)
	merged := domain.Table{Columns: append(append([]string(nil), selected.Columns...), weatherColumns(selected, weather)...)}
	missing := domain.Table{Columns: merged.Columns}

	originCol := selected.Index(domain.ColOrigin)
	dateCol := selected.Index(domain.ColFlightDateStr)
	width := len(weather.Columns)

	for _, row := range selected.Rows {
		out := make([]string, 0, len(merged.Columns))
		out = append(out, row...)

		origin, date := cell(row, originCol), cell(row, dateCol)
		matched := false
		if w, ok := index[key(origin, date)]; ok && origin != "" && date != "" {
			src := weather.Rows[w]
			for j := 0; j < width; j++ {
				v := ""
				if j < len(src) {
					v = src[j]
				}
				matched = matched || v != ""
				out = append(out, v)
			}
		} else {
			out = append(out, make([]string, width)...)
		}

		merged.Rows = append(merged.Rows, out)
		if matched {
			res.Matched++
		} else if foundSet[origin] {
			missing.Rows = append(missing.Rows, out)
		}
	}

	res.Artifacts.Merged = merged
	res.Artifacts.MissingMatches = missing
	return res
}

// selectFlights keeps rows whose origin is allow-listed and appends an
// orig_iata column as the last flight column, replacing any existing one so
// the weather block always follows it. Rows are copied.
func selectFlights(flights domain.Table, allow map[string]bool) domain.Table {
	originCol := flights.Index(domain.ColOrigin)
	out := domain.Table{Columns: append([]string(nil), flights.Columns...)}
	for _, row := range flights.Rows {
		if originCol < 0 || originCol >= len(row) || !allow[row[originCol]] {
			continue
		}
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}

	out.DropColumn(domain.ColOrigIATA)
	originCol = out.Index(domain.ColOrigin)
	out.AddColumn(domain.ColOrigIATA, func(i int) string { return out.Rows[i][originCol] })
	return out
}

// dedupIndex maps each (iata, date_str) pair to the first weather row carrying it.
func dedupIndex(weather domain.Table) map[string]int {
	iataCol := weather.Index(domain.ColIATA)
	dateCol := weather.Index(domain.ColDateStr)
	index := make(map[string]int, weather.Len())
	if iataCol < 0 || dateCol < 0 {
		return index
	}
	for i, row := range weather.Rows {
		if iataCol >= len(row) || dateCol >= len(row) {
			continue
		}
		station, date := domain.CanonicalCode(row[iataCol]), row[dateCol]
		if station == "" || date == "" {
			continue
		}
		k := key(station, date)
		if _, seen := index[k]; !seen {
			index[k] = i
		}
	}
	return index
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func key(station, date string) string {
	return station + "\x00" + date
}

// weatherColumns names the appended columns, suffixing collisions.
func weatherColumns(flights, weather domain.Table) []string {
	out := make([]string, len(weather.Columns))
	for i, c := range weather.Columns {
		if flights.Has(c) {
			c += collisionSuffix
		}
		out[i] = c
	}
	return out
}

func missingStations(allow, found map[string]bool) []string {
	var out []string
	for s := range allow {
		if !found[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func singleColumn(name string, values []string) domain.Table {
	t := domain.Table{Columns: []string{name}}
	for _, v := range values {
		t.Rows = append(t.Rows, []string{v})
	}
	return t
}

// countByOrigin counts flights per origin, busiest first, ties by code.
func countByOrigin(flights domain.Table) domain.Table {
	counts := make(map[string]int)
	originCol := flights.Index(domain.ColOrigin)
	for _, row := range flights.Rows {
		counts[cell(row, originCol)]++
	}

	origins := make([]string, 0, len(counts))
	for o := range counts {
		origins = append(origins, o)
	}
	sort.Slice(origins, func(i, j int) bool {
		if counts[origins[i]] != counts[origins[j]] {
			return counts[origins[i]] > counts[origins[j]]
		}
		return origins[i] < origins[j]
	})

	t := domain.Table{Columns: []string{domain.ColOrigin, "n_flights"}}
	for _, o := range origins {
		t.Rows = append(t.Rows, []string{o, strconv.Itoa(counts[o])})
	}
	return t
}
