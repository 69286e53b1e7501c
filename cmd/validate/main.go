// Command validate checks the integrity of the four join artifacts written by
// cmd/join: merged cardinality against the flight counts, missing matches as
// a subset of the merged table, disjointness from the stations without
// weather, and the ordering of the counts.
//
// Usage:
//
//	go run ./cmd/validate -dir .
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/flight-weather-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", ".", "directory containing the join artifacts")
	flag.Parse()

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	fmt.Println("=== Join Artifact Validation ===")
	fmt.Println()

	a, err := csvfile.ReadJoinArtifacts(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(a)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d merged, %d missing matches, %d missing origins, %d origins counted\n",
		a.Merged.Len(), a.MissingMatches.Len(), a.MissingOrigins.Len(), a.FlightCounts.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(a domain.JoinArtifacts) []*phase {
	return []*phase{
		validateCardinality(a),
		validateMissingMatches(a),
		validateMissingOrigins(a),
		validateCounts(a),
	}
}

// weatherColumns returns the positions of the merged columns appended by the
// join. The join writes orig_iata as the last flight column, so the weather
// block is everything after it.
func weatherColumns(merged domain.Table) []int {
	j := merged.Index(domain.ColOrigIATA)
	if j < 0 {
		return nil
	}
	var cols []int
	for i := j + 1; i < len(merged.Columns); i++ {
		cols = append(cols, i)
	}
	return cols
}

func countColumn(t domain.Table, col string) int {
	n := 0
	for _, c := range t.Columns {
		if c == col {
			n++
		}
	}
	return n
}

func hasWeather(row []string, cols []int) bool {
	for _, j := range cols {
		if j < len(row) && row[j] != "" {
			return true
		}
	}
	return false
}

func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}

// ── Phase 1: Cardinality ──
// Every selected flight yields exactly one merged row.

func validateCardinality(a domain.JoinArtifacts) *phase {
	p := &phase{name: "Phase 1: Merged Cardinality"}

	switch n := countColumn(a.Merged, domain.ColOrigIATA); n {
	case 1:
	case 0:
		p.errorf("merged table has no %q column", domain.ColOrigIATA)
	default:
		p.errorf("merged column %q appears %d times", domain.ColOrigIATA, n)
	}

	total := 0
	for i := range a.FlightCounts.Rows {
		n, err := strconv.Atoi(a.FlightCounts.Value(i, "n_flights"))
		if err != nil {
			p.errorf("flight counts row %d: n_flights %q is not an integer", i+2, a.FlightCounts.Value(i, "n_flights"))
			continue
		}
		total += n
	}
	if total != a.Merged.Len() {
		p.errorf("merged has %d rows, flight counts sum to %d", a.Merged.Len(), total)
	}
	return p
}

// ── Phase 2: Missing Matches ──
// Missing matches are exactly the merged rows without weather whose origin
// had weather available.

func validateMissingMatches(a domain.JoinArtifacts) *phase {
	p := &phase{name: "Phase 2: Missing Matches"}

	if !slices.Equal(a.MissingMatches.Columns, a.Merged.Columns) {
		p.errorf("missing matches columns %v differ from merged columns %v", a.MissingMatches.Columns, a.Merged.Columns)
		return p
	}

	cols := weatherColumns(a.Merged)
	if len(cols) == 0 {
		if a.MissingMatches.Len() != 0 {
			p.errorf("merged has no weather columns but missing matches has %d rows", a.MissingMatches.Len())
		}
		return p
	}

	missingOrigins := originSet(a.MissingOrigins, domain.ColIATA)
	originCol := a.Merged.Index(domain.ColOrigin)

	expected := make(map[string]int)
	for _, row := range a.Merged.Rows {
		if hasWeather(row, cols) {
			continue
		}
		if originCol >= 0 && originCol < len(row) && missingOrigins[row[originCol]] {
			continue
		}
		expected[rowKey(row)]++
	}

	for i, row := range a.MissingMatches.Rows {
		if hasWeather(row, cols) {
			p.errorf("missing matches row %d carries weather values", i+2)
			continue
		}
		k := rowKey(row)
		if expected[k] == 0 {
			p.errorf("missing matches row %d is not an unmatched merged row", i+2)
			continue
		}
		expected[k]--
	}
	for _, n := range expected {
		if n > 0 {
			p.errorf("%d unmatched merged rows are absent from missing matches", n)
		}
	}
	return p
}

// ── Phase 3: Missing Origins ──

func validateMissingOrigins(a domain.JoinArtifacts) *phase {
	p := &phase{name: "Phase 3: Missing Weather Origins"}

	if !slices.Equal(a.MissingOrigins.Columns, []string{domain.ColIATA}) {
		p.errorf("missing origins columns are %v, want [%s]", a.MissingOrigins.Columns, domain.ColIATA)
		return p
	}

	missing := originSet(a.MissingOrigins, domain.ColIATA)
	for i := range a.MissingMatches.Rows {
		if o := a.MissingMatches.Value(i, domain.ColOrigin); missing[o] {
			p.errorf("missing matches row %d has origin %s listed without weather", i+2, o)
		}
	}
	for i := range a.Merged.Rows {
		if o := a.Merged.Value(i, domain.ColOrigin); missing[o] && hasWeather(a.Merged.Rows[i], weatherColumns(a.Merged)) {
			p.errorf("merged row %d has weather for origin %s listed without weather", i+2, o)
		}
	}
	return p
}

// ── Phase 4: Flight Counts ──

func validateCounts(a domain.JoinArtifacts) *phase {
	p := &phase{name: "Phase 4: Flight Counts"}

	perOrigin := make(map[string]int)
	for i := range a.Merged.Rows {
		perOrigin[a.Merged.Value(i, domain.ColOrigin)]++
	}

	prev := -1
	for i := range a.FlightCounts.Rows {
		origin := a.FlightCounts.Value(i, domain.ColOrigin)
		n, err := strconv.Atoi(a.FlightCounts.Value(i, "n_flights"))
		if err != nil {
			continue
		}
		if prev >= 0 && n > prev {
			p.errorf("flight counts row %d (%s=%d) is larger than the row before it (%d)", i+2, origin, n, prev)
		}
		prev = n
		if perOrigin[origin] != n {
			p.errorf("origin %s: counts say %d, merged has %d", origin, n, perOrigin[origin])
		}
		delete(perOrigin, origin)
	}
	for origin, n := range perOrigin {
		p.errorf("origin %s has %d merged rows but no count", origin, n)
	}
	return p
}

func originSet(t domain.Table, col string) map[string]bool {
	out := make(map[string]bool, t.Len())
	for i := range t.Rows {
		out[t.Value(i, col)] = true
	}
	return out
}
