// Command join left-joins the flight export against the cached daily weather
// of the configured origin stations and writes four CSV artifacts: the
// merged table, the stations without weather, the flights whose date found
// no weather row, and flight counts per origin.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/couchcryptid/flight-weather-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-weather-etl/internal/config"
	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/join"
	"github.com/couchcryptid/flight-weather-etl/internal/observability"
)

// maxUnmatchedExamples bounds the unmatched rows logged after a run.
const maxUnmatchedExamples = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	metrics.RunActive.Set(1)
	defer metrics.RunActive.Set(0)

	flights, err := csvfile.LoadFlights(cfg.FlightsCSV)
	if err != nil {
		if errors.Is(err, domain.ErrSchema) {
			logger.Error("flight table is missing a required column", "path", cfg.FlightsCSV, "error", err)
		} else {
			logger.Error("failed to read flights", "path", cfg.FlightsCSV, "error", err)
		}
		os.Exit(1)
	}
	logger.Info("flights loaded", "path", cfg.FlightsCSV, "rows", flights.Len(), "columns", flights.Columns)

	weather, found, err := csvfile.NewWeatherCache(cfg.JoinWeatherDir, logger).Load(cfg.JoinStations)
	if err != nil {
		logger.Error("failed to read weather cache", "dir", cfg.JoinWeatherDir, "error", err)
		os.Exit(1)
	}

	res := join.Merge(flights, weather, found, cfg.JoinStations)

	metrics.FlightsLoaded.Set(float64(res.FlightsTotal))
	metrics.FlightsSelected.Set(float64(res.FlightsSelected))
	metrics.FlightsMatched.Set(float64(res.Matched))
	metrics.WeatherRows.Set(float64(res.WeatherRows))
	metrics.StationsMissing.Set(float64(len(res.Missing)))

	logger.Info("flights filtered by origin",
		"total", res.FlightsTotal, "selected", res.FlightsSelected, "stations", len(cfg.JoinStations))
	logger.Info("weather loaded",
		"found", len(res.Found), "missing", len(res.Missing), "missing_stations", res.Missing, "rows", res.WeatherRows)
	if res.WeatherRows == 0 {
		logger.Warn("no weather rows read, writing flights without weather columns")
	}

	paths, err := csvfile.WriteJoinArtifacts(cfg.JoinOutputDir, res.Artifacts)
	if err != nil {
		logger.Error("failed to write join artifacts", "dir", cfg.JoinOutputDir, "error", err)
		os.Exit(1)
	}

	logger.Info("join finished",
		"matched", res.Matched,
		"merged", res.Artifacts.Merged.Len(),
		"missing_matches", res.Artifacts.MissingMatches.Len(),
		"artifacts", paths,
	)
	logUnmatchedExamples(logger, res.Artifacts.MissingMatches)
}

// logUnmatchedExamples prints a few rows whose join key found no weather.
func logUnmatchedExamples(logger *slog.Logger, missing domain.Table) {
	if missing.Len() == 0 {
		logger.Debug("every flight with a cached origin matched a weather row")
		return
	}
	for i := 0; i < missing.Len() && i < maxUnmatchedExamples; i++ {
		logger.Debug("unmatched flight",
			"flight_date", missing.Value(i, domain.ColFlightDate),
			"origin", missing.Value(i, domain.ColOrigin),
			"flight_date_str", missing.Value(i, domain.ColFlightDateStr),
			"iata", missing.Value(i, domain.ColIATA),
			"date_str", missing.Value(i, domain.ColDateStr),
		)
	}
}
