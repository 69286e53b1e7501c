package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlights(t *testing.T) {
	raw := Table{
		Columns: []string{"\ufefffl_date ", " origin", "dest", "dep_time"},
		Rows: [][]string{
			{"01/02/2024", " jfk ", "LAX", "0905"},
			{"garbage", "atl", "ORD"},
		},
	}

	got, err := NormalizeFlights(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"flight_date", "origin", "dest", "dep_time_raw", "flight_date_str"}, got.Columns)
	assert.Equal(t, []string{"01/02/2024", "JFK", "LAX", "0905", "2024-02-01"}, got.Rows[0])
	assert.Equal(t, []string{"garbage", "ATL", "ORD", "", ""}, got.Rows[1], "unparsable date kept as null")
}

func TestNormalizeFlights_PrefersFlightDate(t *testing.T) {
	raw := Table{
		Columns: []string{"fl_date", "flight_date", "origin", "dep_time", "dep_time_raw"},
		Rows:    [][]string{{"x", "15/03/2024", "bos", "1", "2"}},
	}

	got, err := NormalizeFlights(raw)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Value(0, ColFlightDateStr))
	assert.True(t, got.Has("fl_date"))
	assert.True(t, got.Has(ColDepTime), "dep_time untouched when dep_time_raw exists")
}

func TestNormalizeFlights_SchemaErrors(t *testing.T) {
	_, err := NormalizeFlights(Table{Columns: []string{"origin", "dest"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "fl_date")

	_, err = NormalizeFlights(Table{Columns: []string{"fl_date", "dest"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "origin")
}
