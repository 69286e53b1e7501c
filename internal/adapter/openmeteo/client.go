package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	"github.com/couchcryptid/flight-weather-etl/internal/observability"
)

// DefaultBaseURL is the Open-Meteo historical archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// Client implements domain.Archive against the Open-Meteo archive API.
// It performs exactly one request per call and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an archive client whose requests are bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchDaily requests the daily variables for one station over one period, in UTC.
func (c *Client) FetchDaily(ctx context.Context, station domain.Station, period domain.Period) domain.ArchiveResult {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(station.Lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(station.Lon, 'f', -1, 64)},
		"start_date": {period.Start.Format(domain.DateLayout)},
		"end_date":   {period.End.Format(domain.DateLayout)},
		"daily":      {strings.Join(domain.DailyVariables, ",")},
		"timezone":   {"UTC"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return failed(fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ArchiveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return failed(fmt.Errorf("archive request %s %s: %w", station.Code, period, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return domain.ArchiveResult{
			Kind: domain.ArchiveRateLimited,
			Err:  fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failed(fmt.Errorf("archive API error: status %d: %s", resp.StatusCode, body))
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return failed(fmt.Errorf("decode response: %w", err))
	}

	c.logger.Debug("archive response",
		"station", station.Code,
		"period", period.String(),
		"status", resp.StatusCode,
	)
	return domain.ArchiveResult{Kind: domain.ArchiveSuccess, Body: body}
}

func failed(err error) domain.ArchiveResult {
	return domain.ArchiveResult{
		Kind: domain.ArchiveRequestFailed,
		Err:  fmt.Errorf("%w: %w", domain.ErrRequestFailed, err),
	}
}
