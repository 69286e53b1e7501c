package csvfile

import (
	"fmt"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// LoadFlights reads the semicolon-delimited flight export and normalizes it
// with domain.NormalizeFlights. Missing required columns yield domain.ErrSchema.
func LoadFlights(path string) (domain.Table, error) {
	raw, err := ReadTable(path, ';')
	if err != nil {
		return domain.Table{}, fmt.Errorf("load flights %s: %w", path, err)
	}
	t, err := domain.NormalizeFlights(raw)
	if err != nil {
		return domain.Table{}, fmt.Errorf("load flights %s: %w", path, err)
	}
	return t, nil
}
