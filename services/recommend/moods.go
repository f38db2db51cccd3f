package recommend

import "sort"

// moodGenres maps each supported mood onto the TMDB genre names it
// pulls candidates from.
var moodGenres = map[string][]string{
	"happy":       {"Comedy", "Music", "Animation", "Family"},
	"sad":         {"Drama", "Romance"},
	"tense":       {"Horror", "Thriller", "Mystery", "Crime"},
	"adventurous": {"Adventure", "Science Fiction", "Fantasy", "Action"},
	"calm":        {"Documentary", "Drama", "History"},
}

// Moods lists the supported mood labels in stable order.
func Moods() []string {
	moods := make([]string, 0, len(moodGenres))
	for mood := range moodGenres {
		moods = append(moods, mood)
	}
	sort.Strings(moods)
	return moods
}

// GenresForMood returns the genre names behind a mood, or false for an
// unrecognized label.
func GenresForMood(mood string) ([]string, bool) {
	genres, ok := moodGenres[mood]
	if !ok {
		return nil, false
	}
	out := make([]string, len(genres))
	copy(out, genres)
	return out, true
}
