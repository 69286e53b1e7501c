package csvfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// LoadRegistry reads the airport reference table into a domain.Registry.
//
// The station column is "iata", or "iata_code", or failing both "ident". The
// first column whose name contains "latitude" (and "longitude") holds the
// coordinate. Rows with a blank code or unparsable coordinates are skipped.
func LoadRegistry(path string) (*domain.Registry, error) {
	t, err := ReadTable(path, ',')
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	stations, err := registryStations(t)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	return domain.NewRegistry(stations), nil
}

func registryStations(t domain.Table) ([]domain.Station, error) {
	t.Columns = domain.NormalizeHeader(t.Columns)
	t.Rename("iata_code", "iata")
	if !t.Has("iata") {
		t.Rename("ident", "iata")
	}
	if !t.Has("iata") {
		return nil, fmt.Errorf("%w: no iata, iata_code or ident column", domain.ErrSchema)
	}

	latCol := columnContaining(t.Columns, "latitude")
	lonCol := columnContaining(t.Columns, "longitude")
	if latCol == "" || lonCol == "" {
		return nil, fmt.Errorf("%w: no latitude/longitude columns", domain.ErrSchema)
	}

	stations := make([]domain.Station, 0, t.Len())
	for i := range t.Rows {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(t.Value(i, latCol)), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(t.Value(i, lonCol)), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		stations = append(stations, domain.Station{Code: t.Value(i, "iata"), Lat: lat, Lon: lon})
	}
	return stations, nil
}

func columnContaining(cols []string, substr string) string {
	for _, c := range cols {
		if strings.Contains(strings.ToLower(c), substr) {
			return c
		}
	}
	return ""
}
