package fetch_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/fetch"
	"github.com/couchcryptid/flight-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

// scriptedArchive replays results in order and repeats the last one forever.
type scriptedArchive struct {
	mu      sync.Mutex
	results []domain.ArchiveResult
	calls   []call
}

type call struct {
	station string
	period  string
}

func (a *scriptedArchive) FetchDaily(_ context.Context, station domain.Station, period domain.Period) domain.ArchiveResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := min(len(a.calls), len(a.results)-1)
	a.calls = append(a.calls, call{station: station.Code, period: period.String()})
	res := a.results[i]
	if res.Kind == domain.ArchiveSuccess && res.Body == nil {
		return success(period.Start.Format(domain.DateLayout))
	}
	return res
}

func (a *scriptedArchive) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func success(days ...string) domain.ArchiveResult {
	temps := make([]float64, len(days))
	for i := range days {
		temps[i] = float64(i) + 0.5
	}
	daily, _ := json.Marshal(map[string]any{"time": days, "temperature_2m_max": temps})
	return domain.ArchiveResult{
		Kind: domain.ArchiveSuccess,
		Body: map[string]json.RawMessage{"daily": daily},
	}
}

// firstDay answers each request with the first day of the requested period.
func firstDay() domain.ArchiveResult {
	return domain.ArchiveResult{Kind: domain.ArchiveSuccess}
}

func rateLimited() domain.ArchiveResult {
	return domain.ArchiveResult{Kind: domain.ArchiveRateLimited, Err: domain.ErrRateLimited}
}

func requestFailed() domain.ArchiveResult {
	return domain.ArchiveResult{Kind: domain.ArchiveRequestFailed, Err: errors.New("request failed: status 503")}
}

// autoAdvance fires every timer created on fc as soon as it is armed.
func autoAdvance(t *testing.T, fc *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		for {
			if err := fc.BlockUntilContext(ctx, 1); err != nil {
				return
			}
			fc.Advance(time.Hour)
		}
	}()
}

func newRetrier(archive domain.Archive, fc clockwork.Clock, metrics *observability.Metrics) *fetch.Retrier {
	return fetch.NewRetrier(archive, fc, fetch.DefaultRetryPolicy(), slog.Default(), metrics)
}

var january = domain.Period{
	Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
}

var jfk = domain.Station{Code: "JFK", Lat: 40.6413, Lon: -73.7781}

// --- tests ---

func TestRetryPolicy_Delay(t *testing.T) {
	p := fetch.DefaultRetryPolicy()

	tests := []struct {
		name    string
		kind    domain.ArchiveKind
		attempt int
		want    time.Duration
	}{
		{"rate limited first attempt", domain.ArchiveRateLimited, 1, 61 * time.Second},
		{"rate limited second attempt", domain.ArchiveRateLimited, 2, 62 * time.Second},
		{"rate limited fourth attempt", domain.ArchiveRateLimited, 4, 68 * time.Second},
		{"rate limited sixth attempt", domain.ArchiveRateLimited, 6, 92 * time.Second},
		{"request failed first attempt", domain.ArchiveRequestFailed, 1, 3 * time.Second},
		{"request failed fifth attempt", domain.ArchiveRequestFailed, 5, 7 * time.Second},
		{"success paces next call", domain.ArchiveSuccess, 1, 4 * time.Second},
		{"zero attempt treated as first", domain.ArchiveRateLimited, 0, 61 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Delay(tt.kind, tt.attempt))
		})
	}
}

func TestRetrier_SuccessFirstAttempt(t *testing.T) {
	fc := clockwork.NewFakeClock()
	autoAdvance(t, fc)
	archive := &scriptedArchive{results: []domain.ArchiveResult{success("2024-01-01", "2024-01-02")}}
	metrics := observability.NewMetricsForTesting()

	series, err := newRetrier(archive, fc, metrics).FetchPeriod(context.Background(), jfk, january)
	require.NoError(t, err)

	assert.Equal(t, 2, series.Len())
	assert.Equal(t, 1, archive.callCount())
	assert.Equal(t, []call{{station: "JFK", period: "2024-01-01..2024-01-31"}}, archive.calls)
	assert.InDelta(t, 4.0, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("pacing")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ArchiveRequests.WithLabelValues("success")), 0.001)
}

func TestRetrier_AlwaysRateLimited(t *testing.T) {
	fc := clockwork.NewFakeClock()
	autoAdvance(t, fc)
	archive := &scriptedArchive{results: []domain.ArchiveResult{rateLimited()}}
	metrics := observability.NewMetricsForTesting()

	_, err := newRetrier(archive, fc, metrics).FetchPeriod(context.Background(), jfk, january)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.Equal(t, 6, archive.callCount())
	// 6 x 60s cool-down + 1+2+4+8+16+32s additive backoff.
	assert.InDelta(t, 423.0, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("rate_limited")), 0.001)
	assert.InDelta(t, 6.0, testutil.ToFloat64(metrics.ArchiveRequests.WithLabelValues("rate_limited")), 0.001)
}

func TestRetrier_RecoversAfterFailure(t *testing.T) {
	fc := clockwork.NewFakeClock()
	autoAdvance(t, fc)
	archive := &scriptedArchive{results: []domain.ArchiveResult{
		requestFailed(),
		rateLimited(),
		success("2024-01-01"),
	}}
	metrics := observability.NewMetricsForTesting()

	series, err := newRetrier(archive, fc, metrics).FetchPeriod(context.Background(), jfk, january)
	require.NoError(t, err)

	assert.Equal(t, 1, series.Len())
	assert.Equal(t, 3, archive.callCount())
	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("request_failed")), 0.001)
	// Second attempt: 60s cool-down + 2s.
	assert.InDelta(t, 62.0, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("rate_limited")), 0.001)
	assert.InDelta(t, 4.0, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("pacing")), 0.001)
}

func TestRetrier_AlwaysFailingExhaustsBudget(t *testing.T) {
	fc := clockwork.NewFakeClock()
	autoAdvance(t, fc)
	archive := &scriptedArchive{results: []domain.ArchiveResult{requestFailed()}}
	metrics := observability.NewMetricsForTesting()

	_, err := newRetrier(archive, fc, metrics).FetchPeriod(context.Background(), jfk, january)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, 6, archive.callCount())
	// (2+1) + (2+2) + ... + (2+6).
	assert.InDelta(t, 33.0, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("request_failed")), 0.001)
}

func TestRetrier_MalformedResponseIsTerminal(t *testing.T) {
	fc := clockwork.NewFakeClock()
	archive := &scriptedArchive{results: []domain.ArchiveResult{{
		Kind: domain.ArchiveSuccess,
		Body: map[string]json.RawMessage{"error": json.RawMessage(`true`), "reason": json.RawMessage(`"bad"`)},
	}}}
	metrics := observability.NewMetricsForTesting()

	_, err := newRetrier(archive, fc, metrics).FetchPeriod(context.Background(), jfk, january)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.NotErrorIs(t, err, domain.ErrRetryExhausted)
	assert.Equal(t, 1, archive.callCount())
	assert.Zero(t, testutil.ToFloat64(metrics.BackoffSeconds.WithLabelValues("pacing")))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ArchiveRequests.WithLabelValues("malformed")), 0.001)
}

func TestRetrier_DayOutsidePeriodIsTerminal(t *testing.T) {
	fc := clockwork.NewFakeClock()
	archive := &scriptedArchive{results: []domain.ArchiveResult{success("2024-01-31", "2024-02-01")}}
	metrics := observability.NewMetricsForTesting()

	_, err := newRetrier(archive, fc, metrics).FetchPeriod(context.Background(), jfk, january)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "2024-02-01")
	assert.Equal(t, 1, archive.callCount())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ArchiveRequests.WithLabelValues("malformed")), 0.001)
}

func TestRetrier_CancelDuringCooldown(t *testing.T) {
	fc := clockwork.NewFakeClock()
	archive := &scriptedArchive{results: []domain.ArchiveResult{rateLimited()}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = fc.BlockUntilContext(ctx, 1)
		cancel()
	}()

	_, err := newRetrier(archive, fc, observability.NewMetricsForTesting()).FetchPeriod(ctx, jfk, january)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, archive.callCount())
}

func TestRetrier_CustomAttemptBudget(t *testing.T) {
	fc := clockwork.NewFakeClock()
	autoAdvance(t, fc)
	archive := &scriptedArchive{results: []domain.ArchiveResult{rateLimited()}}
	policy := fetch.DefaultRetryPolicy()
	policy.MaxAttempts = 2

	r := fetch.NewRetrier(archive, fc, policy, slog.Default(), observability.NewMetricsForTesting())
	_, err := r.FetchPeriod(context.Background(), jfk, january)

	require.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.Equal(t, 2, archive.callCount())
}
