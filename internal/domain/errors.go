package domain

import "errors"

var (
	// ErrRateLimited marks an HTTP 429 from the archive.
	ErrRateLimited = errors.New("rate limited")

	// ErrRequestFailed covers timeouts, connection failures and any other non-2xx status.
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedResponse marks a 2xx payload without a usable daily series.
	// It is terminal for the period and therefore for the station this run.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRetryExhausted is returned once the attempt budget for a period is spent.
	ErrRetryExhausted = errors.New("retry exhausted")

	// ErrSchema marks an input table missing a required column.
	ErrSchema = errors.New("schema error")
)
