package domain

import "strings"

// Table is a column-named string table. Empty cells are nulls.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of col, or -1.
func (t Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries col.
func (t Table) Has(col string) bool { return t.Index(col) >= 0 }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Value returns the cell of row i in col, or "" when the column is absent.
func (t Table) Value(i int, col string) string {
	j := t.Index(col)
	if j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Rename changes the name of column from to to. It is a no-op when from is absent.
func (t *Table) Rename(from, to string) {
	if j := t.Index(from); j >= 0 {
		t.Columns[j] = to
	}
}

// AddColumn appends a column, computing each cell from its row index.
func (t *Table) AddColumn(name string, value func(i int) string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], value(i))
	}
}

// SetColumn rewrites every cell of an existing column.
func (t *Table) SetColumn(name string, value func(i int, cur string) string) {
	j := t.Index(name)
	if j < 0 {
		return
	}
	for i, row := range t.Rows {
		row[j] = value(i, row[j])
	}
}

// DropColumn removes col from the header and every row. It is a no-op when
// col is absent.
func (t *Table) DropColumn(col string) {
	j := t.Index(col)
	if j < 0 {
		return
	}
	t.Columns = append(t.Columns[:j:j], t.Columns[j+1:]...)
	for i, row := range t.Rows {
		if j < len(row) {
			t.Rows[i] = append(row[:j:j], row[j+1:]...)
		}
	}
}

// NormalizeHeader strips byte-order marks and surrounding whitespace from
// column names.
func NormalizeHeader(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.TrimSpace(strings.ReplaceAll(c, "\ufeff", ""))
	}
	return out
}

// Stack concatenates tables with possibly different columns. Columns keep
// first-appearance order and missing cells are null.
func Stack(tables []Table) Table {
	var out Table
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			r := make([]string, len(out.Columns))
			for j, c := range t.Columns {
				if j < len(row) {
					r[pos[c]] = row[j]
				}
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
