package csvfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// WeatherCache is a directory of per-station daily weather files named
// weather_<CODE>.csv. A file's existence marks the station as fetched.
type WeatherCache struct {
	dir    string
	logger *slog.Logger
}

// NewWeatherCache returns a cache rooted at dir.
func NewWeatherCache(dir string, logger *slog.Logger) *WeatherCache {
	return &WeatherCache{dir: dir, logger: logger}
}

// FileName returns the cache file name for a station.
func FileName(station string) string {
	return "weather_" + domain.CanonicalCode(station) + ".csv"
}

// Path returns the cache file path for a station.
func (c *WeatherCache) Path(station string) string {
	return filepath.Join(c.dir, FileName(station))
}

// Exists reports whether the station already has a cache file.
func (c *WeatherCache) Exists(station string) (bool, error) {
	_, err := os.Stat(c.Path(station))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write stores a station's full series as one file. The file appears
// atomically; a crash mid-write leaves no cache entry.
func (c *WeatherCache) Write(station string, series domain.DailySeries) error {
	if err := WriteTable(c.Path(station), series.CacheTable(station)); err != nil {
		return fmt.Errorf("write cache for %s: %w", station, err)
	}
	return nil
}

// Load reads and stacks the cache files of the given stations, skipping
// stations without a file. It returns the stacked table and the stations
// whose files were read, in input order. Each row gains "date_str" and
// "source_file" columns and a canonical "iata".
func (c *WeatherCache) Load(stations []string) (domain.Table, []string, error) {
	var (
		parts []domain.Table
		found []string
	)
	for _, station := range stations {
		code := domain.CanonicalCode(station)
		ok, err := c.Exists(code)
		if err != nil {
			return domain.Table{}, nil, fmt.Errorf("stat cache for %s: %w", code, err)
		}
		if !ok {
			continue
		}

		raw, err := ReadTable(c.Path(code), ',')
		if err != nil {
			c.logger.Warn("unreadable weather file, skipping", "station", code, "error", err)
			continue
		}
		t, err := domain.NormalizeWeatherFile(raw, code, FileName(code))
		if domain.IsNoDateColumn(err) {
			c.logger.Warn("weather file has no time or date column, skipping", "station", code, "columns", raw.Columns)
			continue
		}
		if err != nil {
			return domain.Table{}, nil, fmt.Errorf("normalize cache for %s: %w", code, err)
		}
		parts = append(parts, t)
		found = append(found, code)
	}

	if len(parts) == 0 {
		return domain.Table{Columns: []string{domain.ColIATA, domain.ColDateStr}}, found, nil
	}
	return domain.Stack(parts), found, nil
}
