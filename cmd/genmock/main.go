// Command genmock writes a small deterministic dataset for running the fetch
// and join commands locally without network access: an airport reference
// table, a pending list, a semicolon-delimited flight export, and weather
// cache files written through the same cache adapter the fetch run uses.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
//
// Some stations are deliberately left without weather, and a few cached days
// are dropped, so the join produces non-empty missing-origin and
// missing-match artifacts.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flight-weather-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

// airports are the default join stations with their field coordinates.
var airports = []domain.Station{
	{Code: "BOS", Lat: 42.3656, Lon: -71.0096},
	{Code: "ALB", Lat: 42.7483, Lon: -73.8017},
	{Code: "JFK", Lat: 40.6413, Lon: -73.7781},
	{Code: "PHL", Lat: 39.8744, Lon: -75.2424},
	{Code: "ATL", Lat: 33.6407, Lon: -84.4277},
	{Code: "MIA", Lat: 25.7959, Lon: -80.2870},
	{Code: "ORD", Lat: 41.9742, Lon: -87.9073},
	{Code: "MSP", Lat: 44.8848, Lon: -93.2223},
	{Code: "IAH", Lat: 29.9902, Lon: -95.3368},
	{Code: "MSY", Lat: 29.9934, Lon: -90.2580},
	{Code: "DEN", Lat: 39.8561, Lon: -104.6737},
	{Code: "SLC", Lat: 40.7899, Lon: -111.9791},
	{Code: "PHX", Lat: 33.4342, Lon: -112.0116},
	{Code: "LAS", Lat: 36.0840, Lon: -115.1537},
	{Code: "LAX", Lat: 33.9416, Lon: -118.4085},
	{Code: "SFO", Lat: 37.6213, Lon: -122.3790},
	{Code: "SEA", Lat: 47.4502, Lon: -122.3088},
	{Code: "ANC", Lat: 61.1743, Lon: -149.9963},
	{Code: "HNL", Lat: 21.3187, Lon: -157.9225},
	{Code: "SJU", Lat: 18.4394, Lon: -66.0018},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	start := flag.String("start", "2024-01-01", "first flight date (YYYY-MM-DD)")
	days := flag.Int("days", 31, "number of days of flights and weather")
	perDay := flag.Int("flights-per-day", 40, "flights generated per day")
	noWeather := flag.String("no-weather", "SEA,ANC,SJU", "comma-separated stations left without a cache file")
	gapEvery := flag.Int("gap-every", 9, "drop every n-th cached day (0 keeps all)")
	seed := flag.Uint64("seed", 20240101, "random seed")
	flag.Parse()

	first, err := time.Parse(domain.DateLayout, *start)
	if err != nil {
		flag.Usage()
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days < 1 || *perDay < 1 {
		flag.Usage()
		return fmt.Errorf("-days and -flights-per-day must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	skip := make(map[string]bool)
	for _, code := range strings.Split(*noWeather, ",") {
		if code = domain.CanonicalCode(code); code != "" {
			skip[code] = true
		}
	}

	if err := writeAirports(filepath.Join(*out, "airports.csv")); err != nil {
		return fmt.Errorf("writing airports: %w", err)
	}
	if err := writePending(filepath.Join(*out, "missing_airports.txt"), skip); err != nil {
		return fmt.Errorf("writing pending list: %w", err)
	}

	flights := generateFlights(rng, first, *days, *perDay)
	if err := csvfile.WriteDelimited(filepath.Join(*out, "flight_data_2024.csv"), flights, ';'); err != nil {
		return fmt.Errorf("writing flights: %w", err)
	}
	log.Printf("flights: %d rows", flights.Len())

	cache := csvfile.NewWeatherCache(filepath.Join(*out, "selected_weather"), slog.Default())
	written := 0
	for _, s := range airports {
		if skip[s.Code] {
			continue
		}
		if err := cache.Write(s.Code, generateSeries(rng, s, first, *days, *gapEvery)); err != nil {
			return err
		}
		written++
	}
	log.Printf("weather: %d cache files, %d stations without weather", written, len(skip))
	log.Printf("wrote mock dataset to %s", *out)
	return nil
}

func writeAirports(path string) error {
	t := domain.Table{Columns: []string{"ident", "iata_code", "latitude_deg", "longitude_deg"}}
	for _, s := range airports {
		t.Rows = append(t.Rows, []string{
			"K" + s.Code,
			s.Code,
			strconv.FormatFloat(s.Lat, 'f', 4, 64),
			strconv.FormatFloat(s.Lon, 'f', 4, 64),
		})
	}
	return csvfile.WriteTable(path, t)
}

// writePending lists the stations that still need weather, one per line,
// plus one code absent from the airport table.
func writePending(path string, skip map[string]bool) error {
	lines := []string{"XYZ"}
	for _, s := range airports {
		if skip[s.Code] {
			lines = append(lines, s.Code)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

func generateFlights(rng *rand.Rand, first time.Time, days, perDay int) domain.Table {
	t := domain.Table{Columns: []string{"fl_date", "origin", "dest", "dep_time"}}
	for d := range days {
		date := first.AddDate(0, 0, d).Format("02/01/2006")
		for range perDay {
			origin := airports[rng.IntN(len(airports))].Code
			dest := airports[rng.IntN(len(airports))].Code
			dep := fmt.Sprintf("%02d%02d", 5+rng.IntN(18), rng.IntN(12)*5)
			t.Rows = append(t.Rows, []string{date, strings.ToLower(origin), dest, dep})
		}
	}
	// A flight outside the join allow-list and one with an unreadable date.
	t.Rows = append(t.Rows,
		[]string{first.Format("02/01/2006"), "XYZ", "JFK", "0600"},
		[]string{"31/31/2024", "JFK", "LAX", "0700"},
	)
	return t
}

func generateSeries(rng *rand.Rand, s domain.Station, first time.Time, days, gapEvery int) domain.DailySeries {
	series := domain.DailySeries{
		Variables: []string{"weather_code", "temperature_2m_max", "temperature_2m_min", "precipitation_sum"},
		Values:    make(map[string][]*float64),
	}
	base := 25 - 0.4*s.Lat
	for d := range days {
		if gapEvery > 0 && (d+1)%gapEvery == 0 {
			continue
		}
		series.Dates = append(series.Dates, first.AddDate(0, 0, d))
		tmax := round1(base + rng.NormFloat64()*4)
		tmin := round1(tmax - 5 - rng.Float64()*6)
		precip := 0.0
		if rng.Float64() < 0.3 {
			precip = round1(rng.ExpFloat64() * 4)
		}
		code := 0.0
		if precip > 0 {
			code = 61
		}
		series.Values["weather_code"] = append(series.Values["weather_code"], &code)
		series.Values["temperature_2m_max"] = append(series.Values["temperature_2m_max"], &tmax)
		series.Values["temperature_2m_min"] = append(series.Values["temperature_2m_min"], &tmin)
		series.Values["precipitation_sum"] = append(series.Values["precipitation_sum"], &precip)
	}
	return series
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5*sign(v))) / 10
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
