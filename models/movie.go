package models

// Candidate is a prospective recommendation returned by the metadata
// provider. Candidates are ephemeral: they are built per query and are
// never persisted except through an explicit mark-as-seen, which routes
// through the history service.
type Candidate struct {
	TMDBID        int64    `json:"tmdbId"`
	Title         string   `json:"title"`
	Overview      string   `json:"overview,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Year          int      `json:"year,omitempty"`
	Popularity    float64  `json:"popularity"`
	Certification string   `json:"certification,omitempty"`
	// Score is only set when a scoring model re-ranked the results.
	Score float64 `json:"score,omitempty"`
}
