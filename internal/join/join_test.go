package join_test

import (
	"testing"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/join"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func flights(t *testing.T, rows ...[]string) domain.Table {
	t.Helper()
	tbl, err := domain.NormalizeFlights(domain.Table{
		Columns: []string{"fl_date", "origin", "dest"},
		Rows:    rows,
	})
	require.NoError(t, err)
	return tbl
}

func weatherFile(t *testing.T, station string, rows ...[]string) domain.Table {
	t.Helper()
	tbl, err := domain.NormalizeWeatherFile(domain.Table{
		Columns: []string{"time", "temperature_2m_max", "iata"},
		Rows:    rows,
	}, station, "weather_"+station+".csv")
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl domain.Table, name string) []string {
	t.Helper()
	j := tbl.Index(name)
	require.GreaterOrEqual(t, j, 0, "column %s", name)
	out := make([]string, len(tbl.Rows))
	for i, row := range tbl.Rows {
		out[i] = row[j]
	}
	return out
}

// --- tests ---

func TestMerge_ConcreteScenario(t *testing.T) {
	f := flights(t, []string{"01/02/2024", "JFK", "LAX"})
	w := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})

	res := join.Merge(f, w, []string{"JFK"}, []string{"JFK"})
	merged := res.Artifacts.Merged

	require.Equal(t, 1, merged.Len())
	assert.Equal(t, "2024-02-01", merged.Value(0, domain.ColFlightDateStr))
	assert.Equal(t, "5.0", merged.Value(0, "temperature_2m_max"))
	assert.Equal(t, "JFK", merged.Value(0, domain.ColOrigIATA))
	assert.Equal(t, 1, res.Matched)
	assert.Zero(t, res.Artifacts.MissingMatches.Len())
}

func TestMerge_MergedColumns(t *testing.T) {
	f := flights(t, []string{"01/02/2024", "JFK", "LAX"})
	w := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})

	res := join.Merge(f, w, []string{"JFK"}, []string{"JFK"})

	want := []string{
		"flight_date", "origin", "dest", "flight_date_str", "orig_iata",
		"time", "temperature_2m_max", "iata", "date_str", "source_file",
	}
	if diff := cmp.Diff(want, res.Artifacts.Merged.Columns); diff != "" {
		t.Fatalf("merged columns (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"01/02/2024", "JFK", "LAX", "2024-02-01", "JFK",
		"2024-02-01", "5.0", "JFK", "2024-02-01", "weather_JFK.csv"}, res.Artifacts.Merged.Rows[0])
}

func TestMerge_ExistingOrigIATAMovedBeforeWeather(t *testing.T) {
	f, err := domain.NormalizeFlights(domain.Table{
		Columns: []string{"fl_date", "orig_iata", "origin", "dest"},
		Rows:    [][]string{{"01/02/2024", "stale", "JFK", "LAX"}},
	})
	require.NoError(t, err)
	w := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})

	res := join.Merge(f, w, []string{"JFK"}, []string{"JFK"})

	want := []string{
		"flight_date", "origin", "dest", "flight_date_str", "orig_iata",
		"time", "temperature_2m_max", "iata", "date_str", "source_file",
	}
	if diff := cmp.Diff(want, res.Artifacts.Merged.Columns); diff != "" {
		t.Fatalf("merged columns (-want +got):\n%s", diff)
	}
	assert.Equal(t, "JFK", res.Artifacts.Merged.Value(0, domain.ColOrigIATA))
	assert.Equal(t, []string{"origin", "n_flights"}, res.Artifacts.FlightCounts.Columns)
}

func TestMerge_DuplicateWeatherKeepsCardinality(t *testing.T) {
	f := flights(t,
		[]string{"01/02/2024", "JFK", "LAX"},
		[]string{"01/02/2024", "JFK", "SFO"},
	)
	first := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})
	dup := weatherFile(t, "JFK", []string{"2024-02-01T00:00:00", "9.9", "JFK"})
	w := domain.Stack([]domain.Table{first, dup})

	res := join.Merge(f, w, []string{"JFK"}, []string{"JFK"})

	require.Equal(t, 2, res.Artifacts.Merged.Len(), "one merged row per flight")
	assert.Equal(t, []string{"5.0", "5.0"}, column(t, res.Artifacts.Merged, "temperature_2m_max"), "first occurrence wins")
	assert.Equal(t, 2, res.Matched)
}

func TestMerge_MissingMatchForAbsentDate(t *testing.T) {
	f := flights(t,
		[]string{"14/03/2024", "ATL", "JFK"},
		[]string{"15/03/2024", "ATL", "JFK"},
		[]string{"16/03/2024", "ATL", "JFK"},
	)
	w := weatherFile(t, "ATL",
		[]string{"2024-03-14", "20.1", "ATL"},
		[]string{"2024-03-16", "22.3", "ATL"},
	)

	res := join.Merge(f, w, []string{"ATL"}, []string{"ATL"})

	assert.Equal(t, 3, res.Artifacts.Merged.Len())
	assert.Equal(t, 2, res.Matched)

	missing := res.Artifacts.MissingMatches
	require.Equal(t, 1, missing.Len())
	assert.Equal(t, res.Artifacts.Merged.Columns, missing.Columns)
	assert.Equal(t, "2024-03-15", missing.Value(0, domain.ColFlightDateStr))
	assert.Empty(t, missing.Value(0, "temperature_2m_max"))
	assert.Empty(t, missing.Value(0, domain.ColDateStr))
}

func TestMerge_UnparsableDateRetainedNeverMatched(t *testing.T) {
	f := flights(t, []string{"31/31/2024", "JFK", "LAX"})
	w := domain.Stack([]domain.Table{
		weatherFile(t, "JFK", []string{"2024-01-01", "1.0", "JFK"}),
		weatherFile(t, "JFK", []string{"garbage", "2.0", "JFK"}),
	})

	res := join.Merge(f, w, []string{"JFK"}, []string{"JFK"})

	require.Equal(t, 1, res.Artifacts.Merged.Len())
	assert.Empty(t, res.Artifacts.Merged.Value(0, domain.ColFlightDateStr))
	assert.Empty(t, res.Artifacts.Merged.Value(0, "temperature_2m_max"))
	assert.Zero(t, res.Matched)
	assert.Equal(t, 1, res.Artifacts.MissingMatches.Len())
}

func TestMerge_FiltersOriginsAndReportsMissingStations(t *testing.T) {
	f := flights(t,
		[]string{"01/02/2024", "JFK", "LAX"},
		[]string{"01/02/2024", "XYZ", "LAX"},
		[]string{"01/02/2024", "sea", "LAX"},
	)
	w := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})

	res := join.Merge(f, w, []string{"JFK"}, []string{"SEA", "JFK", "BOS"})

	assert.Equal(t, 3, res.FlightsTotal)
	assert.Equal(t, 2, res.FlightsSelected)
	assert.Equal(t, []string{"JFK", "SEA"}, column(t, res.Artifacts.Merged, domain.ColOrigin))
	assert.Equal(t, []string{"BOS", "SEA"}, res.Missing)
	assert.Equal(t, domain.Table{
		Columns: []string{"iata"},
		Rows:    [][]string{{"BOS"}, {"SEA"}},
	}, res.Artifacts.MissingOrigins)

	// SEA has no cache file: it is unmatched but reported through missing origins only.
	assert.Zero(t, res.Artifacts.MissingMatches.Len())
}

func TestMerge_FlightCounts(t *testing.T) {
	f := flights(t,
		[]string{"01/02/2024", "ORD", "LAX"},
		[]string{"01/02/2024", "ATL", "LAX"},
		[]string{"02/02/2024", "ATL", "LAX"},
		[]string{"01/02/2024", "BOS", "LAX"},
	)

	res := join.Merge(f, domain.Table{}, nil, []string{"ORD", "ATL", "BOS"})

	want := domain.Table{
		Columns: []string{"origin", "n_flights"},
		Rows:    [][]string{{"ATL", "2"}, {"BOS", "1"}, {"ORD", "1"}},
	}
	if diff := cmp.Diff(want, res.Artifacts.FlightCounts); diff != "" {
		t.Fatalf("flight counts (-want +got):\n%s", diff)
	}
}

func TestMerge_NoWeather(t *testing.T) {
	f := flights(t, []string{"01/02/2024", "JFK", "LAX"})

	res := join.Merge(f, domain.Table{Columns: []string{"iata", "date_str"}}, nil, []string{"JFK"})

	assert.Equal(t, []string{"flight_date", "origin", "dest", "flight_date_str", "orig_iata"}, res.Artifacts.Merged.Columns)
	assert.Equal(t, 1, res.Artifacts.Merged.Len())
	assert.Zero(t, res.Artifacts.MissingMatches.Len())
	assert.Equal(t, res.Artifacts.Merged.Columns, res.Artifacts.MissingMatches.Columns)
	assert.Equal(t, []string{"JFK"}, res.Missing)
	assert.Zero(t, res.Matched)
}

func TestMerge_CollidingColumnsAreSuffixed(t *testing.T) {
	raw := domain.Table{
		Columns: []string{"fl_date", "origin", "time"},
		Rows:    [][]string{{"01/02/2024", "JFK", "0905"}},
	}
	f, err := domain.NormalizeFlights(raw)
	require.NoError(t, err)
	w := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})

	res := join.Merge(f, w, []string{"JFK"}, []string{"JFK"})

	merged := res.Artifacts.Merged
	assert.Equal(t, "0905", merged.Value(0, "time"))
	assert.Equal(t, "2024-02-01", merged.Value(0, "time_weather"))
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	f := flights(t, []string{"01/02/2024", "JFK", "LAX"})
	before := append([]string(nil), f.Rows[0]...)
	w := weatherFile(t, "JFK", []string{"2024-02-01", "5.0", "JFK"})

	_ = join.Merge(f, w, []string{"JFK"}, []string{"JFK"})

	assert.Equal(t, before, f.Rows[0])
	assert.Len(t, f.Columns, 4)
}
