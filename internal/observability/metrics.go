package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fetch and join runs.
type Metrics struct {
	RunActive prometheus.Gauge

	// Fetch metrics.
	StationsResolved   *prometheus.CounterVec // labels: status={ok,cached,no_coords,failed}
	ArchiveRequests    *prometheus.CounterVec // labels: outcome={success,rate_limited,request_failed,malformed}
	ArchiveDuration    prometheus.Histogram
	BackoffSeconds     *prometheus.CounterVec // labels: reason={rate_limited,request_failed,pacing}
	OutcomePublishErrs prometheus.Counter

	// Join metrics.
	FlightsLoaded   prometheus.Gauge
	FlightsSelected prometheus.Gauge
	FlightsMatched  prometheus.Gauge
	WeatherRows     prometheus.Gauge
	StationsMissing prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.RunActive,
		m.StationsResolved,
		m.ArchiveRequests,
		m.ArchiveDuration,
		m.BackoffSeconds,
		m.OutcomePublishErrs,
		m.FlightsLoaded,
		m.FlightsSelected,
		m.FlightsMatched,
		m.WeatherRows,
		m.StationsMissing,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_weather",
			Name:      "run_active",
			Help:      help("1 while a fetch or join run is in progress."),
		}),
		StationsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_weather",
			Name:      "stations_resolved_total",
			Help:      help("Stations resolved by the fetch run, by terminal status."),
		}, []string{"status"}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_weather",
			Name:      "archive_requests_total",
			Help:      help("Archive API attempts by outcome."),
		}, []string{"outcome"}),
		ArchiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flight_weather",
			Name:      "archive_request_duration_seconds",
			Help:      help("Archive API request duration in seconds."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		BackoffSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_weather",
			Name:      "backoff_seconds_total",
			Help:      help("Seconds spent sleeping between archive requests, by reason."),
		}, []string{"reason"}),
		OutcomePublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_weather",
			Name:      "outcome_publish_errors_total",
			Help:      help("Fetch outcome events that could not be published."),
		}),
		FlightsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_weather",
			Name:      "join_flights_loaded",
			Help:      help("Flight rows read by the last join run."),
		}),
		FlightsSelected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_weather",
			Name:      "join_flights_selected",
			Help:      help("Flight rows whose origin is in the station allow-list."),
		}),
		FlightsMatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_weather",
			Name:      "join_flights_matched",
			Help:      help("Merged rows with at least one weather value."),
		}),
		WeatherRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_weather",
			Name:      "join_weather_rows",
			Help:      help("Stacked weather rows read from the cache."),
		}),
		StationsMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_weather",
			Name:      "join_stations_missing",
			Help:      help("Allow-listed stations without a cache file."),
		}),
	}
}
