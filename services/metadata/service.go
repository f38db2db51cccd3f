package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mrsarthi/MBM-recommender/internal/database"
	"github.com/mrsarthi/MBM-recommender/models"
)

// genreAliases maps informal genre labels to TMDB's canonical names.
var genreAliases = map[string]string{
	"sci-fi":  "Science Fiction",
	"scifi":   "Science Fiction",
	"musical": "Music",
}

// Service fronts the TMDB client with a persistent response cache and
// translates provider payloads into candidates.
type Service struct {
	mu    sync.Mutex
	tmdb  *tmdbClient
	cache *database.Cache

	genresByID   map[int64]string
	genresByName map[string]int64
}

// NewService builds a metadata service. cache may be nil, in which case
// every lookup goes to the provider.
func NewService(apiKey, language string, cache *database.Cache) *Service {
	return &Service{
		tmdb:  newTMDBClient(apiKey, language, &http.Client{}),
		cache: cache,
	}
}

// UpdateAPIKey swaps provider credentials at runtime and drops the
// loaded genre catalog so it is refetched with the new key.
func (s *Service) UpdateAPIKey(apiKey, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tmdb = newTMDBClient(apiKey, language, &http.Client{})
	s.genresByID = nil
	s.genresByName = nil
	log.Printf("[metadata] provider credentials updated")
}

func (s *Service) client() *tmdbClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tmdb
}

// SearchMovies queries the provider by title, optionally pinned to a
// release year. Results keep the provider's ordering.
func (s *Service) SearchMovies(ctx context.Context, query string, year int) ([]models.Candidate, error) {
	key := fmt.Sprintf("search:%s:%d", strings.ToLower(strings.TrimSpace(query)), year)
	if candidates, ok := s.cachedCandidates(key); ok {
		return candidates, nil
	}

	movies, err := s.client().searchMovies(ctx, query, year)
	if err != nil {
		return nil, err
	}

	candidates := s.toCandidates(ctx, movies)
	s.storeCandidates(key, candidates)
	return candidates, nil
}

// DiscoverByGenres lists popular movies matching any of the genre ids,
// in the provider's popularity order.
func (s *Service) DiscoverByGenres(ctx context.Context, genreIDs []int64) ([]models.Candidate, error) {
	ids := make([]string, len(genreIDs))
	for i, id := range genreIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	sort.Strings(ids)
	key := "discover:" + strings.Join(ids, "|")

	if candidates, ok := s.cachedCandidates(key); ok {
		return candidates, nil
	}

	movies, err := s.client().discoverMovies(ctx, genreIDs)
	if err != nil {
		return nil, err
	}

	candidates := s.toCandidates(ctx, movies)
	s.storeCandidates(key, candidates)
	return candidates, nil
}

// GenreIDs resolves genre names against the provider's movie genre
// catalog. Unknown names are skipped with a warning; order follows the
// input.
func (s *Service) GenreIDs(ctx context.Context, names []string) ([]int64, error) {
	if err := s.ensureGenreCatalog(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		lookup := strings.TrimSpace(name)
		if canonical, ok := genreAliases[strings.ToLower(lookup)]; ok {
			lookup = canonical
		}
		id, ok := s.genresByName[strings.ToLower(lookup)]
		if !ok {
			log.Printf("[metadata] unknown genre name %q", name)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MovieCertification returns the US content rating for a movie, "NR"
// when the provider has none.
func (s *Service) MovieCertification(ctx context.Context, movieID int64) (string, error) {
	key := fmt.Sprintf("cert:%d", movieID)
	if payload, ok := s.cache.Get(key); ok {
		return string(payload), nil
	}

	resp, err := s.client().movieReleaseDates(ctx, movieID)
	if err != nil {
		return "", err
	}

	cert := usCertification(resp)
	if err := s.cache.Put(key, []byte(cert)); err != nil {
		log.Printf("[metadata] failed to cache certification for %d: %v", movieID, err)
	}
	return cert, nil
}

// ensureGenreCatalog loads the id<->name genre catalog once per
// credential set, preferring the persistent cache.
func (s *Service) ensureGenreCatalog(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.genresByID != nil
	client := s.tmdb
	s.mu.Unlock()
	if loaded {
		return nil
	}

	const key = "genres:movie"
	var byID map[int64]string
	if payload, ok := s.cache.Get(key); ok {
		if err := json.Unmarshal(payload, &byID); err != nil {
			byID = nil
		}
	}

	if byID == nil {
		fetched, err := client.movieGenres(ctx)
		if err != nil {
			return err
		}
		byID = fetched
		if payload, err := json.Marshal(byID); err == nil {
			if err := s.cache.Put(key, payload); err != nil {
				log.Printf("[metadata] failed to cache genre catalog: %v", err)
			}
		}
	}

	byName := make(map[string]int64, len(byID))
	for id, name := range byID {
		byName[strings.ToLower(name)] = id
	}

	s.mu.Lock()
	s.genresByID = byID
	s.genresByName = byName
	s.mu.Unlock()
	return nil
}

// toCandidates maps provider movies onto candidates, resolving genre
// ids to names when the catalog is available.
func (s *Service) toCandidates(ctx context.Context, movies []tmdbMovie) []models.Candidate {
	if err := s.ensureGenreCatalog(ctx); err != nil {
		log.Printf("[metadata] genre catalog unavailable: %v", err)
	}

	s.mu.Lock()
	byID := s.genresByID
	s.mu.Unlock()

	candidates := make([]models.Candidate, 0, len(movies))
	for _, m := range movies {
		c := models.Candidate{
			TMDBID:     m.ID,
			Title:      m.Title,
			Overview:   m.Overview,
			Year:       parseReleaseYear(m.ReleaseDate),
			Popularity: scoreFallback(m.Popularity, m.VoteAverage),
		}
		for _, gid := range m.GenreIDs {
			if name, ok := byID[gid]; ok {
				c.Genres = append(c.Genres, name)
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func (s *Service) cachedCandidates(key string) ([]models.Candidate, bool) {
	payload, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}

	var candidates []models.Candidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

func (s *Service) storeCandidates(key string, candidates []models.Candidate) {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := s.cache.Put(key, payload); err != nil {
		log.Printf("[metadata] failed to cache %s: %v", key, err)
	}
}
