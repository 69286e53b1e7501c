package domain

import "strings"

// Station is an airport with the coordinate used to query its weather.
type Station struct {
	Code string
	Lat  float64
	Lon  float64
}

// CanonicalCode trims and upper-cases a station identifier.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Registry is an immutable station code → coordinate mapping, built once
// before a fetch run and passed to the orchestrator.
type Registry struct {
	stations map[string]Station
}

// NewRegistry builds a Registry. Codes are canonicalized; blank codes are
// dropped and the first entry wins when a code repeats.
func NewRegistry(stations []Station) *Registry {
	m := make(map[string]Station, len(stations))
	for _, s := range stations {
		s.Code = CanonicalCode(s.Code)
		if s.Code == "" {
			continue
		}
		if _, dup := m[s.Code]; dup {
			continue
		}
		m[s.Code] = s
	}
	return &Registry{stations: m}
}

// Lookup returns the station for code, case-insensitively.
func (r *Registry) Lookup(code string) (Station, bool) {
	if r == nil {
		return Station{}, false
	}
	s, ok := r.stations[CanonicalCode(code)]
	return s, ok
}

// Len reports the number of registered stations.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.stations)
}
