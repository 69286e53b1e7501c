package csvfile

import (
	"fmt"
	"path/filepath"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// Join artifact file names, relative to the output directory.
const (
	MergedFile         = "flights_with_origin_weather.csv"
	MissingOriginsFile = "missing_weather_origins.csv"
	MissingMatchesFile = "missing_matches.csv"
	FlightCountsFile   = "flight_counts_by_origin.csv"
)

type artifactFile struct {
	name  string
	table func(a *domain.JoinArtifacts) *domain.Table
}

var artifactFiles = []artifactFile{
	{MergedFile, func(a *domain.JoinArtifacts) *domain.Table { return &a.Merged }},
	{MissingOriginsFile, func(a *domain.JoinArtifacts) *domain.Table { return &a.MissingOrigins }},
	{MissingMatchesFile, func(a *domain.JoinArtifacts) *domain.Table { return &a.MissingMatches }},
	{FlightCountsFile, func(a *domain.JoinArtifacts) *domain.Table { return &a.FlightCounts }},
}

// WriteJoinArtifacts writes the four join outputs into dir and returns
// their paths in write order.
func WriteJoinArtifacts(dir string, a domain.JoinArtifacts) ([]string, error) {
	paths := make([]string, 0, len(artifactFiles))
	for _, f := range artifactFiles {
		path := filepath.Join(dir, f.name)
		if err := WriteTable(path, *f.table(&a)); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadJoinArtifacts reads back the four join outputs from dir.
func ReadJoinArtifacts(dir string) (domain.JoinArtifacts, error) {
	var a domain.JoinArtifacts
	for _, f := range artifactFiles {
		t, err := ReadTable(filepath.Join(dir, f.name), ',')
		if err != nil {
			return domain.JoinArtifacts{}, fmt.Errorf("read %s: %w", f.name, err)
		}
		*f.table(&a) = t
	}
	return a, nil
}
