package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

// DefaultJoinStations is the station allow-list used by the join when
// JOIN_STATIONS is unset.
var DefaultJoinStations = []string{
	"BOS", "ALB", "JFK", "PHL", "ATL", "MIA", "ORD", "MSP", "IAH", "MSY",
	"DEN", "SLC", "PHX", "LAS", "LAX", "SFO", "SEA", "ANC", "HNL", "SJU",
}

// Config holds all settings for the fetch and join commands, populated from
// environment variables.
type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Archive client.
	ArchiveURL     string
	ArchiveTimeout time.Duration

	// Fetch run.
	FetchStart        time.Time
	FetchEnd          time.Time
	FetchMonthly      bool
	MaxAttempts       int
	RequestDelay      time.Duration
	RateLimitCooldown time.Duration
	FailureBackoff    time.Duration
	AirportsCSV       string
	MissingAirports   string
	WeatherCacheDir   string
	AuditLog          string

	// Optional outcome publishing.
	KafkaBrokers      []string
	KafkaOutcomeTopic string

	// Join run.
	FlightsCSV     string
	JoinWeatherDir string
	JoinStations   []string
	JoinOutputDir  string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	archiveTimeout, err := parsePositiveDuration("ARCHIVE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	requestDelay, err := parseNonNegativeDuration("FETCH_REQUEST_DELAY", "4s")
	if err != nil {
		return nil, err
	}
	cooldown, err := parseNonNegativeDuration("FETCH_RATE_LIMIT_COOLDOWN", "60s")
	if err != nil {
		return nil, err
	}
	failureBackoff, err := parseNonNegativeDuration("FETCH_FAILURE_BACKOFF", "2s")
	if err != nil {
		return nil, err
	}

	start, err := parseDate("FETCH_START_DATE", "2024-01-01")
	if err != nil {
		return nil, err
	}
	end, err := parseDate("FETCH_END_DATE", "2024-12-31")
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.New("FETCH_END_DATE must not precede FETCH_START_DATE")
	}

	maxAttempts, err := parseMaxAttempts()
	if err != nil {
		return nil, err
	}

	monthly, err := strconv.ParseBool(sharedcfg.EnvOrDefault("FETCH_MONTHLY", "true"))
	if err != nil {
		return nil, errors.New("invalid FETCH_MONTHLY")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); strings.TrimSpace(v) != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		ArchiveURL:     sharedcfg.EnvOrDefault("ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		ArchiveTimeout: archiveTimeout,

		FetchStart:        start,
		FetchEnd:          end,
		FetchMonthly:      monthly,
		MaxAttempts:       maxAttempts,
		RequestDelay:      requestDelay,
		RateLimitCooldown: cooldown,
		FailureBackoff:    failureBackoff,
		AirportsCSV:       sharedcfg.EnvOrDefault("AIRPORTS_CSV", "airports.csv"),
		MissingAirports:   sharedcfg.EnvOrDefault("MISSING_AIRPORTS", "missing_airports.txt"),
		WeatherCacheDir:   sharedcfg.EnvOrDefault("WEATHER_CACHE_DIR", "weather_outputs"),
		AuditLog:          sharedcfg.EnvOrDefault("AUDIT_LOG", "resume_log.csv"),

		KafkaBrokers:      brokers,
		KafkaOutcomeTopic: sharedcfg.EnvOrDefault("KAFKA_OUTCOME_TOPIC", "weather-fetch-outcomes"),

		FlightsCSV:     sharedcfg.EnvOrDefault("FLIGHTS_CSV", "flight_data_2024.csv"),
		JoinWeatherDir: sharedcfg.EnvOrDefault("JOIN_WEATHER_DIR", "selected_weather"),
		JoinStations:   parseStations(os.Getenv("JOIN_STATIONS")),
		JoinOutputDir:  sharedcfg.EnvOrDefault("JOIN_OUTPUT_DIR", "."),
	}

	if len(cfg.JoinStations) == 0 {
		return nil, errors.New("JOIN_STATIONS must list at least one station")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaOutcomeTopic == "" {
		return nil, errors.New("KAFKA_OUTCOME_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseDate(key, def string) (time.Time, error) {
	d, err := time.Parse(dateLayout, sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: want YYYY-MM-DD", key)
	}
	return d, nil
}

func parseMaxAttempts() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("FETCH_MAX_ATTEMPTS", "6"))
	if err != nil || n < 1 || n > 100 {
		return 0, errors.New("invalid FETCH_MAX_ATTEMPTS: must be 1-100")
	}
	return n, nil
}

// parseStations splits a comma-separated station list, canonicalizing codes
// and dropping blanks and repeats. An empty value yields the default list.
func parseStations(s string) []string {
	if strings.TrimSpace(s) == "" {
		return append([]string(nil), DefaultJoinStations...)
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
