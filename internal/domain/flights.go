package domain

import "fmt"

// Flight table column names after normalization.
const (
	ColFlightDate    = "flight_date"
	ColFlightDateAlt = "fl_date"
	ColFlightDateStr = "flight_date_str"
	ColOrigin        = "origin"
	ColOrigIATA      = "orig_iata"
	ColDepTime       = "dep_time"
	ColDepTimeRaw    = "dep_time_raw"
)

// NormalizeFlights prepares a raw flight table for joining: header cleanup,
// "fl_date" unified to "flight_date", a canonical "flight_date_str" column,
// trimmed upper-case origin codes, and "dep_time" kept as "dep_time_raw".
// It returns ErrSchema when the date or origin column is missing.
func NormalizeFlights(t Table) (Table, error) {
	t.Columns = NormalizeHeader(t.Columns)

	if !t.Has(ColFlightDate) && !t.Has(ColFlightDateAlt) {
		return Table{}, fmt.Errorf("%w: no %q or %q column in flights", ErrSchema, ColFlightDateAlt, ColFlightDate)
	}
	if !t.Has(ColOrigin) {
		return Table{}, fmt.Errorf("%w: no %q column in flights", ErrSchema, ColOrigin)
	}
	if !t.Has(ColFlightDate) {
		t.Rename(ColFlightDateAlt, ColFlightDate)
	}

	padRows(&t)

	dateCol := t.Index(ColFlightDate)
	t.AddColumn(ColFlightDateStr, func(i int) string {
		return CanonicalFlightDate(t.Rows[i][dateCol])
	})
	t.SetColumn(ColOrigin, func(_ int, cur string) string {
		return CanonicalCode(cur)
	})
	if t.Has(ColDepTime) && !t.Has(ColDepTimeRaw) {
		t.Rename(ColDepTime, ColDepTimeRaw)
	}
	return t, nil
}

// padRows extends short rows to the header width so every cell is addressable.
func padRows(t *Table) {
	for i, row := range t.Rows {
		if len(row) < len(t.Columns) {
			t.Rows[i] = append(row, make([]string, len(t.Columns)-len(row))...)
		} else if len(row) > len(t.Columns) {
			t.Rows[i] = row[:len(t.Columns)]
		}
	}
}
