package domain

import "errors"

// Weather table column names.
const (
	ColTime       = "time"
	ColDate       = "date"
	ColDateStr    = "date_str"
	ColIATA       = "iata"
	ColSourceFile = "source_file"
)

// errNoDateColumn is returned for cache files that cannot be joined.
var errNoDateColumn = errors.New("no time or date column")

// NormalizeWeatherFile prepares one station's cache-file table for stacking:
// a canonical "date_str" column parsed from "time" (or "date"), an "iata"
// column canonicalized with blanks filled from station, and a
// "source_file" column naming the file.
func NormalizeWeatherFile(t Table, station, sourceFile string) (Table, error) {
	t.Columns = NormalizeHeader(t.Columns)

	dateCol := ColTime
	if !t.Has(dateCol) {
		dateCol = ColDate
	}
	if !t.Has(dateCol) {
		return Table{}, errNoDateColumn
	}

	padRows(&t)

	j := t.Index(dateCol)
	t.AddColumn(ColDateStr, func(i int) string {
		return CanonicalWeatherDate(t.Rows[i][j])
	})

	code := CanonicalCode(station)
	if !t.Has(ColIATA) {
		t.AddColumn(ColIATA, func(int) string { return code })
	} else {
		t.SetColumn(ColIATA, func(_ int, cur string) string {
			if c := CanonicalCode(cur); c != "" {
				return c
			}
			return code
		})
	}

	t.AddColumn(ColSourceFile, func(int) string { return sourceFile })
	return t, nil
}

// IsNoDateColumn reports whether err came from a cache file lacking a date column.
func IsNoDateColumn(err error) bool {
	return errors.Is(err, errNoDateColumn)
}
