package domain

// JoinArtifacts are the four tables produced by a join run.
type JoinArtifacts struct {
	// Merged holds every selected flight row with weather columns appended.
	Merged Table
	// MissingOrigins lists allow-listed stations without a cache file (column "iata").
	MissingOrigins Table
	// MissingMatches holds merged rows without weather whose station did have a cache file.
	MissingMatches Table
	// FlightCounts holds flights per origin (columns "origin", "n_flights"), busiest first.
	FlightCounts Table
}
