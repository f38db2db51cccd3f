package models

// WatchedEntry is one record of the append-only watched log: a TMDB
// movie id plus the display title it was logged under.
type WatchedEntry struct {
	MovieID int64  `json:"movieId"`
	Title   string `json:"title"`
}

// HistoryStats summarizes the membership sets backing the history
// service. Imported titles and logged ids are independent identity
// spaces; the counts are exposed separately so data quality is visible.
type HistoryStats struct {
	ImportedTitles int `json:"importedTitles"`
	DislikedTitles int `json:"dislikedTitles"`
	LoggedIDs      int `json:"loggedIds"`
	SkippedLogRows int `json:"skippedLogRows"`
}
