package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/mrsarthi/MBM-recommender/models"
)

type fakeProvider struct {
	searchResults   []models.Candidate
	searchErr       error
	discoverResults []models.Candidate
	discoverErr     error
	genreIDsErr     error
	certifications  map[int64]string

	discoveredWith []int64
}

func (f *fakeProvider) SearchMovies(_ context.Context, query string, year int) ([]models.Candidate, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeProvider) DiscoverByGenres(_ context.Context, genreIDs []int64) ([]models.Candidate, error) {
	f.discoveredWith = genreIDs
	return f.discoverResults, f.discoverErr
}

func (f *fakeProvider) GenreIDs(_ context.Context, names []string) ([]int64, error) {
	if f.genreIDsErr != nil {
		return nil, f.genreIDsErr
	}
	ids := make([]int64, len(names))
	for i := range names {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func (f *fakeProvider) MovieCertification(_ context.Context, movieID int64) (string, error) {
	if cert, ok := f.certifications[movieID]; ok {
		return cert, nil
	}
	return "", errors.New("no release dates")
}

// fakeScorer rates by a fixed per-title table, 3.0 otherwise.
type fakeScorer struct {
	byGenre map[string]float64
}

func (f *fakeScorer) Score(genres []string, certification, contextLabel, overview string) float64 {
	for _, g := range genres {
		if score, ok := f.byGenre[g]; ok {
			return score
		}
	}
	return 3.0
}

func TestRecommendByMoodUnknownMood(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeProvider{}, nil)
	if _, err := svc.RecommendByMood(context.Background(), "grumpy", "", 0); !errors.Is(err, ErrUnknownMood) {
		t.Fatalf("expected ErrUnknownMood, got %v", err)
	}
}

func TestRecommendByMoodPipeline(t *testing.T) {
	provider := &fakeProvider{
		discoverResults: []models.Candidate{
			{TMDBID: 27205, Title: "Inception", Genres: []string{"Action"}, Popularity: 90},
			{TMDBID: 603, Title: "The Matrix", Genres: []string{"Science Fiction"}, Popularity: 80},
			{TMDBID: 157336, Title: "Interstellar", Genres: []string{"Adventure"}, Popularity: 70},
			{TMDBID: 11, Title: "Star Wars", Genres: []string{"Science Fiction"}, Popularity: 60},
		},
		certifications: map[int64]string{603: "R", 157336: "PG-13", 11: "PG"},
	}
	store := &fakeStore{
		seenTitles: map[string]bool{"Inception": true},
		disliked:   map[string]bool{"Interstellar": true},
	}
	scorer := &fakeScorer{byGenre: map[string]float64{"Science Fiction": 4.5}}

	svc := NewService(store, provider, scorer)
	got, err := svc.RecommendByMood(context.Background(), "adventurous", "alone", 0)
	if err != nil {
		t.Fatalf("RecommendByMood failed: %v", err)
	}

	// Inception is watched, Interstellar is disliked. The two sci-fi
	// titles score equally so provider popularity order holds.
	if len(got) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(got))
	}
	if got[0].Title != "The Matrix" || got[1].Title != "Star Wars" {
		t.Fatalf("unexpected ranking: %v, %v", got[0].Title, got[1].Title)
	}
	if got[0].Score != 4.5 {
		t.Fatalf("expected score 4.5, got %v", got[0].Score)
	}
	if got[0].Certification != "R" {
		t.Fatalf("expected enriched certification, got %q", got[0].Certification)
	}
}

func TestRecommendByMoodCertificationFallback(t *testing.T) {
	provider := &fakeProvider{
		discoverResults: []models.Candidate{
			{TMDBID: 42, Title: "Obscure Indie", Popularity: 10},
		},
	}

	svc := NewService(&fakeStore{}, provider, nil)
	got, err := svc.RecommendByMood(context.Background(), "calm", "", 0)
	if err != nil {
		t.Fatalf("RecommendByMood failed: %v", err)
	}
	if len(got) != 1 || got[0].Certification != "NR" {
		t.Fatalf("expected NR fallback, got %+v", got)
	}
}

func TestRecommendByMoodNilScorerKeepsSourceOrder(t *testing.T) {
	provider := &fakeProvider{
		discoverResults: []models.Candidate{
			{TMDBID: 1, Title: "First", Popularity: 2},
			{TMDBID: 2, Title: "Second", Popularity: 90},
			{TMDBID: 3, Title: "Third", Popularity: 40},
		},
		certifications: map[int64]string{1: "PG", 2: "PG", 3: "PG"},
	}

	svc := NewService(&fakeStore{}, provider, nil)
	got, err := svc.RecommendByMood(context.Background(), "happy", "", 0)
	if err != nil {
		t.Fatalf("RecommendByMood failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, title := range []string{"First", "Second", "Third"} {
		if got[i].Title != title {
			t.Fatalf("source order not preserved: %+v", got)
		}
		if got[i].Score != 0 {
			t.Fatalf("score must stay unset without a scorer, got %v", got[i].Score)
		}
	}
}

func TestRecommendByMoodProviderFailureIsEmpty(t *testing.T) {
	provider := &fakeProvider{discoverErr: errors.New("upstream down")}
	svc := NewService(&fakeStore{}, provider, nil)

	got, err := svc.RecommendByMood(context.Background(), "happy", "", 0)
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty recommendations, got %v", got)
	}
}

func TestRecommendByMoodLimit(t *testing.T) {
	var results []models.Candidate
	certs := make(map[int64]string)
	for i := int64(1); i <= 30; i++ {
		results = append(results, models.Candidate{TMDBID: i, Title: "Movie", Popularity: float64(100 - i)})
		certs[i] = "PG"
	}
	provider := &fakeProvider{discoverResults: results, certifications: certs}

	svc := NewService(&fakeStore{}, provider, nil)
	got, err := svc.RecommendByMood(context.Background(), "sad", "", 0)
	if err != nil {
		t.Fatalf("RecommendByMood failed: %v", err)
	}
	if len(got) != defaultLimit {
		t.Fatalf("expected default limit %d, got %d", defaultLimit, len(got))
	}

	got, err = svc.RecommendByMood(context.Background(), "sad", "", 5)
	if err != nil {
		t.Fatalf("RecommendByMood failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 results, got %d", len(got))
	}
}

func TestSearchFiltered(t *testing.T) {
	provider := &fakeProvider{
		searchResults: []models.Candidate{
			{TMDBID: 27205, Title: "Inception"},
			{TMDBID: 64956, Title: "Inception: The Cobol Job"},
		},
	}
	store := &fakeStore{seenTitles: map[string]bool{"Inception": true}}

	svc := NewService(store, provider, nil)
	got, err := svc.SearchFiltered(context.Background(), "inception", 0)
	if err != nil {
		t.Fatalf("SearchFiltered failed: %v", err)
	}
	if len(got) != 1 || got[0].TMDBID != 64956 {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestSearchFilteredRequiresQuery(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeProvider{}, nil)
	if _, err := svc.SearchFiltered(context.Background(), "   ", 0); !errors.Is(err, ErrQueryRequired) {
		t.Fatalf("expected ErrQueryRequired, got %v", err)
	}
}

func TestSearchFilteredProviderFailureIsEmpty(t *testing.T) {
	provider := &fakeProvider{searchErr: errors.New("upstream down")}
	svc := NewService(&fakeStore{}, provider, nil)

	got, err := svc.SearchFiltered(context.Background(), "inception", 0)
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty results, got %v", got)
	}
}
