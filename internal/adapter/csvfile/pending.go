package csvfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// LoadPending reads the pending station list: one code per line, blank
// lines ignored, codes canonicalized. Order is preserved.
func LoadPending(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load pending list: %w", err)
	}
	defer f.Close()

	var codes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if code := domain.CanonicalCode(sc.Text()); code != "" {
			codes = append(codes, code)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load pending list: %w", err)
	}
	return codes, nil
}
