package recommend

import "github.com/mrsarthi/MBM-recommender/models"

// HistoryStore answers whether the user has already seen or disliked a
// movie.
type HistoryStore interface {
	IsSeen(candidate models.Candidate) bool
	IsDisliked(title string) bool
}

// Filter removes candidates the user has already watched. Input order
// is preserved and the input slice is never modified. Duplicate unseen
// candidates pass through untouched.
func Filter(candidates []models.Candidate, store HistoryStore) []models.Candidate {
	unseen := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if store.IsSeen(c) {
			continue
		}
		unseen = append(unseen, c)
	}
	return unseen
}
