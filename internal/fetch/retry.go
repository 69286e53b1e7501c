package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// RetryPolicy bounds the attempts made for one period and the sleeps between them.
type RetryPolicy struct {
	MaxAttempts       int
	RateLimitCooldown time.Duration
	FailureBackoff    time.Duration
	RequestDelay      time.Duration
}

// DefaultRetryPolicy is six attempts, a 60s cool-down on 429, a 2s base
// backoff on other failures and 4s pacing after each success.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       6,
		RateLimitCooldown: 60 * time.Second,
		FailureBackoff:    2 * time.Second,
		RequestDelay:      4 * time.Second,
	}
}

// Delay returns how long to sleep after the given 1-based attempt ended with kind.
//
// Rate limits wait the cool-down plus an additive term that doubles per
// attempt (1s, 2s, 4s, ...). Other failures wait the base backoff plus one
// second per attempt. A success waits the pacing delay before the next call.
func (p RetryPolicy) Delay(kind domain.ArchiveKind, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch kind {
	case domain.ArchiveRateLimited:
		return p.RateLimitCooldown + time.Second<<min(attempt-1, 30)
	case domain.ArchiveRequestFailed:
		return p.FailureBackoff + time.Duration(attempt)*time.Second
	default:
		return p.RequestDelay
	}
}

// Retrier is the backoff controller around an Archive. It is not safe for
// concurrent use; requests are issued one at a time.
type Retrier struct {
	archive domain.Archive
	clock   clockwork.Clock
	policy  RetryPolicy
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRetrier wraps archive with policy. Sleeps are taken on clock.
func NewRetrier(archive domain.Archive, clock clockwork.Clock, policy RetryPolicy, logger *slog.Logger, metrics *observability.Metrics) *Retrier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{
		archive: archive,
		clock:   clock,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchPeriod returns the daily series for one station and period.
//
// The error wraps ErrMalformedResponse when a successful response carries no
// daily series or a day outside period (no further attempts are made), ErrRetryExhausted once every
// attempt was rate limited or failed, or the context error when ctx is
// cancelled during a request or a sleep.
func (r *Retrier) FetchPeriod(ctx context.Context, station domain.Station, period domain.Period) (domain.DailySeries, error) {
	var last domain.ArchiveResult
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.DailySeries{}, err
		}

		last = r.archive.FetchDaily(ctx, station, period)

		switch last.Kind {
		case domain.ArchiveSuccess:
			series, err := domain.ParseDailySeries(last.Body)
			if err == nil {
				err = series.CheckPeriod(period)
			}
			if err != nil {
				r.metrics.ArchiveRequests.WithLabelValues("malformed").Inc()
				r.logger.Warn("malformed archive response",
					"station", station.Code, "period", period.String(), "error", err)
				return domain.DailySeries{}, fmt.Errorf("%s: %w", period, err)
			}
			r.metrics.ArchiveRequests.WithLabelValues(last.Kind.String()).Inc()
			// Pace the next call even though this one succeeded.
			if err := r.sleep(ctx, "pacing", r.policy.Delay(last.Kind, attempt)); err != nil {
				return domain.DailySeries{}, err
			}
			return series, nil

		case domain.ArchiveRateLimited:
			r.metrics.ArchiveRequests.WithLabelValues(last.Kind.String()).Inc()
			delay := r.policy.Delay(last.Kind, attempt)
			r.logger.Warn("archive rate limited",
				"station", station.Code, "period", period.String(),
				"attempt", attempt, "max_attempts", r.policy.MaxAttempts, "delay", delay)
			if err := r.sleep(ctx, "rate_limited", delay); err != nil {
				return domain.DailySeries{}, err
			}

		default:
			if ctx.Err() != nil {
				return domain.DailySeries{}, ctx.Err()
			}
			r.metrics.ArchiveRequests.WithLabelValues(domain.ArchiveRequestFailed.String()).Inc()
			delay := r.policy.Delay(domain.ArchiveRequestFailed, attempt)
			r.logger.Warn("archive request failed",
				"station", station.Code, "period", period.String(),
				"attempt", attempt, "max_attempts", r.policy.MaxAttempts, "delay", delay, "error", last.Err)
			if err := r.sleep(ctx, "request_failed", delay); err != nil {
				return domain.DailySeries{}, err
			}
		}
	}

	cause := "rate limited"
	if last.Kind != domain.ArchiveRateLimited && last.Err != nil {
		cause = last.Err.Error()
	}
	return domain.DailySeries{}, fmt.Errorf("%s: %w after %d attempts (last: %s)",
		period, domain.ErrRetryExhausted, r.policy.MaxAttempts, cause)
}

// sleep blocks for d on the retrier's clock. It returns ctx.Err() if the
// context ends first.
func (r *Retrier) sleep(ctx context.Context, reason string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	r.metrics.BackoffSeconds.WithLabelValues(reason).Add(d.Seconds())

	timer := r.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
