package recommend

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/mrsarthi/MBM-recommender/models"
	"github.com/mrsarthi/MBM-recommender/services/history"
	"github.com/mrsarthi/MBM-recommender/services/metadata"
	"github.com/mrsarthi/MBM-recommender/services/scoring"
)

var (
	ErrUnknownMood   = errors.New("unknown mood")
	ErrQueryRequired = errors.New("search query is required")
)

const (
	defaultLimit = 20

	// certWorkers bounds parallel certification lookups so a page of
	// candidates does not hammer the provider.
	certWorkers = 5
)

// MetadataProvider is the slice of the metadata service the
// recommendation pipeline needs.
type MetadataProvider interface {
	SearchMovies(ctx context.Context, query string, year int) ([]models.Candidate, error)
	DiscoverByGenres(ctx context.Context, genreIDs []int64) ([]models.Candidate, error)
	GenreIDs(ctx context.Context, names []string) ([]int64, error)
	MovieCertification(ctx context.Context, movieID int64) (string, error)
}

var (
	_ HistoryStore     = (*history.Service)(nil)
	_ MetadataProvider = (*metadata.Service)(nil)
)

// Service assembles mood-based recommendations: candidate discovery,
// watched filtering and personal scoring.
type Service struct {
	history  HistoryStore
	metadata MetadataProvider
	scorer   scoring.Scorer
}

// NewService builds the recommendation pipeline. scorer may be nil, in
// which case provider popularity decides the ordering.
func NewService(historyStore HistoryStore, provider MetadataProvider, scorer scoring.Scorer) *Service {
	return &Service{
		history:  historyStore,
		metadata: provider,
		scorer:   scorer,
	}
}

// RecommendByMood returns unseen movies matching the mood, best first.
// Provider failures degrade to an empty list rather than an error so a
// flaky upstream never breaks the endpoint.
func (s *Service) RecommendByMood(ctx context.Context, mood, contextLabel string, limit int) ([]models.Candidate, error) {
	genres, ok := GenresForMood(strings.ToLower(strings.TrimSpace(mood)))
	if !ok {
		return nil, ErrUnknownMood
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	genreIDs, err := s.metadata.GenreIDs(ctx, genres)
	if err != nil {
		log.Printf("[recommend] genre lookup failed for mood %q: %v", mood, err)
		return []models.Candidate{}, nil
	}

	candidates, err := s.metadata.DiscoverByGenres(ctx, genreIDs)
	if err != nil {
		log.Printf("[recommend] discover failed for mood %q: %v", mood, err)
		return []models.Candidate{}, nil
	}

	unseen := Filter(candidates, s.history)
	unseen = s.dropDisliked(unseen)
	s.enrichCertifications(ctx, unseen)
	s.rank(unseen, contextLabel)

	if len(unseen) > limit {
		unseen = unseen[:limit]
	}
	return unseen, nil
}

// SearchFiltered looks up movies by title and hides the ones already
// watched.
func (s *Service) SearchFiltered(ctx context.Context, query string, year int) ([]models.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrQueryRequired
	}

	candidates, err := s.metadata.SearchMovies(ctx, query, year)
	if err != nil {
		log.Printf("[recommend] search failed for %q: %v", query, err)
		return []models.Candidate{}, nil
	}
	return Filter(candidates, s.history), nil
}

func (s *Service) dropDisliked(candidates []models.Candidate) []models.Candidate {
	kept := candidates[:0:0]
	for _, c := range candidates {
		if s.history.IsDisliked(c.Title) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// enrichCertifications fills in content ratings in place. Each worker
// writes a distinct index so no synchronization is needed beyond the
// pool wait.
func (s *Service) enrichCertifications(ctx context.Context, candidates []models.Candidate) {
	p := pool.New().WithMaxGoroutines(certWorkers)
	for i := range candidates {
		p.Go(func() {
			cert, err := s.metadata.MovieCertification(ctx, candidates[i].TMDBID)
			if err != nil {
				log.Printf("[recommend] certification lookup failed for %d: %v", candidates[i].TMDBID, err)
				cert = "NR"
			}
			candidates[i].Certification = cert
		})
	}
	p.Wait()
}

// rank scores every candidate and sorts best first. The sort is stable
// so equally scored movies keep the provider's popularity order.
// Without a scorer the candidates keep source ordering and no score is
// assigned.
func (s *Service) rank(candidates []models.Candidate, contextLabel string) {
	if s.scorer == nil {
		return
	}

	for i := range candidates {
		candidates[i].Score = s.scorer.Score(candidates[i].Genres, candidates[i].Certification, contextLabel, candidates[i].Overview)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
}
