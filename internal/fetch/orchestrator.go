// Package fetch downloads daily weather for pending stations, one station and
// one period at a time, and records a durable outcome per station.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/observability"
	"github.com/google/uuid"
)

// PeriodFetcher returns a station's daily series for one period, retrying as
// it sees fit.
type PeriodFetcher interface {
	FetchPeriod(ctx context.Context, station domain.Station, period domain.Period) (domain.DailySeries, error)
}

// Cache stores one file per fully fetched station.
type Cache interface {
	Exists(station string) (bool, error)
	Write(station string, series domain.DailySeries) error
}

// OutcomeRecorder durably records a station outcome.
type OutcomeRecorder interface {
	Record(ctx context.Context, outcome domain.FetchOutcome) error
}

// OutcomePublisher announces a recorded outcome to other systems.
type OutcomePublisher interface {
	Publish(ctx context.Context, outcome domain.FetchOutcome) error
}

// Summary counts the stations resolved so far in a run.
type Summary struct {
	RunID    string                     `json:"run_id"`
	Pending  int                        `json:"pending"`
	Resolved int                        `json:"resolved"`
	Counts   map[domain.FetchStatus]int `json:"counts"`
	Current  string                     `json:"current,omitempty"`
}

// Orchestrator runs the fetch over a pending station list.
type Orchestrator struct {
	registry  *domain.Registry
	fetcher   PeriodFetcher
	cache     Cache
	audit     OutcomeRecorder
	publisher OutcomePublisher
	periods   []domain.Period
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu      sync.Mutex
	summary Summary
}

// New creates an Orchestrator. The registry is read-only for the lifetime of
// the run; periods are fetched in the order given.
func New(registry *domain.Registry, fetcher PeriodFetcher, cache Cache, audit OutcomeRecorder, periods []domain.Period, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		fetcher:  fetcher,
		cache:    cache,
		audit:    audit,
		periods:  periods,
		logger:   logger,
		metrics:  metrics,
		summary:  Summary{Counts: newCounts()},
	}
}

// WithPublisher makes the orchestrator publish every recorded outcome.
// Publish failures are logged and do not change the outcome.
func (o *Orchestrator) WithPublisher(p OutcomePublisher) *Orchestrator {
	o.publisher = p
	return o
}

// CheckReadiness returns nil once at least one station has been resolved.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no station resolved yet")
	}
	return nil
}

// Status returns a snapshot of the run so far.
func (o *Orchestrator) Status() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.summary
	s.Counts = maps.Clone(o.summary.Counts)
	return s
}

// Run resolves each pending station in order and appends exactly one audit
// row per station after it is resolved. A cancelled context stops the run
// before the next station; the station in flight gets no row and no file.
// An audit write failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context, pending []string) (Summary, error) {
	o.metrics.RunActive.Set(1)
	defer o.metrics.RunActive.Set(0)

	runID := uuid.NewString()
	o.mu.Lock()
	o.summary = Summary{RunID: runID, Pending: len(pending), Counts: newCounts()}
	o.mu.Unlock()

	o.logger.Info("fetch run started",
		"run_id", runID,
		"pending", len(pending), "periods", len(o.periods), "registry_size", o.registry.Len())

	for _, code := range pending {
		code = domain.CanonicalCode(code)
		if code == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return o.Status(), err
		}
		o.setCurrent(code)

		outcome, err := o.resolve(ctx, code)
		if err != nil {
			o.logger.Info("fetch run interrupted", "station", code, "reason", err)
			return o.Status(), err
		}
		outcome.RunID = runID
		if err := o.record(ctx, outcome); err != nil {
			return o.Status(), err
		}
	}

	o.setCurrent("")
	summary := o.Status()
	o.logger.Info("fetch run finished",
		"run_id", runID,
		"resolved", summary.Resolved,
		"ok", summary.Counts[domain.StatusOK],
		"cached", summary.Counts[domain.StatusCached],
		"no_coords", summary.Counts[domain.StatusNoCoords],
		"failed", summary.Counts[domain.StatusFailed],
	)
	return summary, nil
}

// resolve decides one station's outcome. It returns an error only when ctx
// ended before the station was resolved.
func (o *Orchestrator) resolve(ctx context.Context, code string) (domain.FetchOutcome, error) {
	cached, err := o.cache.Exists(code)
	if err != nil {
		return domain.NewFetchOutcome(code, domain.StatusFailed, "cache check: "+err.Error()), nil
	}
	if cached {
		return domain.NewFetchOutcome(code, domain.StatusCached, "cache exists"), nil
	}

	station, ok := o.registry.Lookup(code)
	if !ok {
		return domain.NewFetchOutcome(code, domain.StatusNoCoords, "skipped"), nil
	}

	parts := make([]domain.DailySeries, 0, len(o.periods))
	for _, period := range o.periods {
		series, err := o.fetcher.FetchPeriod(ctx, station, period)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.FetchOutcome{}, ctxErr
			}
			o.logger.Warn("period failed, abandoning station",
				"station", code, "period", period.String(), "error", err)
			return domain.NewFetchOutcome(code, domain.StatusFailed, err.Error()), nil
		}
		o.logger.Debug("period fetched", "station", code, "period", period.String(), "days", series.Len())
		parts = append(parts, series)
	}

	series := domain.ConcatSeries(parts)
	if err := o.cache.Write(code, series); err != nil {
		return domain.NewFetchOutcome(code, domain.StatusFailed, err.Error()), nil
	}

	outcome := domain.NewFetchOutcome(code, domain.StatusOK, "saved")
	outcome.Rows = series.Len()
	return outcome, nil
}

func (o *Orchestrator) record(ctx context.Context, outcome domain.FetchOutcome) error {
	if err := o.audit.Record(ctx, outcome); err != nil {
		return fmt.Errorf("record outcome for %s: %w", outcome.Station, err)
	}

	o.mu.Lock()
	o.summary.Resolved++
	o.summary.Counts[outcome.Status]++
	o.mu.Unlock()

	o.metrics.StationsResolved.WithLabelValues(string(outcome.Status)).Inc()
	o.ready.Store(true)
	o.logger.Info("station resolved",
		"station", outcome.Station, "status", string(outcome.Status), "notes", outcome.Notes, "rows", outcome.Rows)

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, outcome); err != nil {
			o.metrics.OutcomePublishErrs.Inc()
			o.logger.Warn("publish outcome failed", "station", outcome.Station, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) setCurrent(code string) {
	o.mu.Lock()
	o.summary.Current = code
	o.mu.Unlock()
}

func newCounts() map[domain.FetchStatus]int {
	counts := make(map[domain.FetchStatus]int, len(domain.FetchStatuses))
	for _, s := range domain.FetchStatuses {
		counts[s] = 0
	}
	return counts
}
