package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var clock = clockwork.NewRealClock()

// SetClock replaces the time source used to stamp outcomes. Nil restores the
// real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// FetchStatus is the terminal result of one station in a fetch run.
type FetchStatus string

const (
	StatusOK       FetchStatus = "ok"
	StatusCached   FetchStatus = "cached"
	StatusNoCoords FetchStatus = "no_coords"
	StatusFailed   FetchStatus = "failed"
)

// FetchStatuses lists every status in audit-log order of precedence.
var FetchStatuses = []FetchStatus{StatusOK, StatusCached, StatusNoCoords, StatusFailed}

// FetchOutcome is one audit-log row. RunID identifies the fetch run that
// produced it and is not written to the audit log.
type FetchOutcome struct {
	Station    string      `json:"iata"`
	Status     FetchStatus `json:"status"`
	Notes      string      `json:"notes"`
	Rows       int         `json:"rows,omitempty"`
	RunID      string      `json:"run_id,omitempty"`
	ResolvedAt time.Time   `json:"resolved_at"`
}

// NewFetchOutcome stamps an outcome with the current time.
func NewFetchOutcome(station string, status FetchStatus, notes string) FetchOutcome {
	return FetchOutcome{
		Station:    CanonicalCode(station),
		Status:     status,
		Notes:      notes,
		ResolvedAt: clock.Now().UTC(),
	}
}
