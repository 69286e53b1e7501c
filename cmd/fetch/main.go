// Command fetch downloads the daily weather archive for every station in the
// pending list that has no cache file yet, appending one audit-log row per
// station. Re-running it with the same cache directory and audit log resumes
// where the previous run stopped.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/flight-weather-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/flight-weather-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flight-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/flight-weather-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/flight-weather-etl/internal/config"
	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/fetch"
	"github.com/couchcryptid/flight-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	registry, err := csvfile.LoadRegistry(cfg.AirportsCSV)
	if err != nil {
		logger.Error("failed to load station registry", "error", err)
		os.Exit(1)
	}
	pending, err := csvfile.LoadPending(cfg.MissingAirports)
	if err != nil {
		logger.Error("failed to load pending stations", "path", cfg.MissingAirports, "error", err)
		os.Exit(1)
	}
	logger.Info("inputs loaded", "registry_size", registry.Len(), "pending", len(pending))

	archive := openmeteo.NewClient(cfg.ArchiveURL, cfg.ArchiveTimeout, logger, metrics)
	retrier := fetch.NewRetrier(archive, clockwork.NewRealClock(), fetch.RetryPolicy{
		MaxAttempts:       cfg.MaxAttempts,
		RateLimitCooldown: cfg.RateLimitCooldown,
		FailureBackoff:    cfg.FailureBackoff,
		RequestDelay:      cfg.RequestDelay,
	}, logger, metrics)

	orch := fetch.New(
		registry,
		retrier,
		csvfile.NewWeatherCache(cfg.WeatherCacheDir, logger),
		csvfile.NewAuditLog(cfg.AuditLog),
		domain.FetchPeriods(cfg.FetchStart, cfg.FetchEnd, cfg.FetchMonthly),
		logger,
		metrics,
	)

	// Outcome publishing is feature-flagged via KAFKA_BROKERS.
	var publisher *kafkaadapter.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		orch.WithPublisher(publisher)
		logger.Info("outcome publishing enabled", "topic", cfg.KafkaOutcomeTopic, "brokers", cfg.KafkaBrokers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The status server is feature-flagged via HTTP_ADDR.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, orch, func() any { return orch.Status() }, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	exitCode := 0
	if _, err := orch.Run(ctx, pending); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("fetch run cancelled, rerun to resume")
		} else {
			logger.Error("fetch run failed", "error", err)
		}
		exitCode = 1
	}
	logger.Info("audit log written", "path", cfg.AuditLog)

	stop()
	shutdown(cfg, srv, publisher, logger)
	os.Exit(exitCode)
}

func shutdown(cfg *config.Config, srv *httpadapter.Server, publisher *kafkaadapter.Publisher, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}
