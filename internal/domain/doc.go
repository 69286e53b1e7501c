// Package domain models airport weather history and flight records for the
// flight/weather reconciliation pipeline.
//
// # Data Sources
//
// Daily weather comes from the Open-Meteo historical archive
// (https://archive-api.open-meteo.com/v1/archive). Requests are made per
// station and per calendar month, in UTC, for a fixed set of daily variables
// (see [DailyVariables]). Successful station series are cached on disk, one
// file per station, and that file's existence is the idempotency marker for
// later runs.
//
// Flight records come from a semicolon-delimited export with one row per
// flight leg. The date column is named either "fl_date" or "flight_date" and
// is written day-first:
//
//	"01/02/2024"  →  1 February 2024  →  canonical "2024-02-01"
//
// # Canonical Dates
//
// Both sides of the join are reduced to "YYYY-MM-DD" strings before matching.
// Matching is exact string equality; there is no nearest-date fallback.
// Unparsable dates become the empty string, which never matches.
//
// # Nulls
//
// Tables are held as strings. An empty cell is a null cell; the CSV round
// trip cannot tell them apart, so neither does this package.
//
// # Fetch Outcomes
//
// Every station handled by a fetch run resolves to exactly one of:
//
//	ok         all periods fetched, cache file written
//	cached     cache file already present, nothing fetched
//	no_coords  station absent from the registry
//	failed     a period exhausted its attempts or returned a malformed payload
package domain
