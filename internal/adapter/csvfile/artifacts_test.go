package csvfile

import (
	"path/filepath"
	"testing"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinArtifacts_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	in := domain.JoinArtifacts{
		Merged: domain.Table{
			Columns: []string{"origin", "flight_date_str", "orig_iata", "temperature_2m_max"},
			Rows:    [][]string{{"JFK", "2024-02-01", "JFK", "5.0"}, {"JFK", "2024-02-02", "JFK", ""}},
		},
		MissingOrigins: domain.Table{Columns: []string{"iata"}, Rows: [][]string{{"SEA"}}},
		MissingMatches: domain.Table{
			Columns: []string{"origin", "flight_date_str", "orig_iata", "temperature_2m_max"},
			Rows:    [][]string{{"JFK", "2024-02-02", "JFK", ""}},
		},
		FlightCounts: domain.Table{Columns: []string{"origin", "n_flights"}, Rows: [][]string{{"JFK", "2"}}},
	}

	paths, err := WriteJoinArtifacts(dir, in)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, MergedFile),
		filepath.Join(dir, MissingOriginsFile),
		filepath.Join(dir, MissingMatchesFile),
		filepath.Join(dir, FlightCountsFile),
	}, paths)

	got, err := ReadJoinArtifacts(dir)
	require.NoError(t, err)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("artifacts (-want +got):\n%s", diff)
	}
}

func TestReadJoinArtifacts_Missing(t *testing.T) {
	_, err := ReadJoinArtifacts(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), MergedFile)
}
