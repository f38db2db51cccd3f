package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// ErrNotConfigured is returned when no TMDB API key is set.
var ErrNotConfigured = errors.New("tmdb api key not configured")

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

func (c *tmdbClient) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if since := time.Since(c.lastRequest); since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
}

// doGET performs a rate-limited GET against the TMDB API, retrying
// transient failures (network errors, 429, 5xx) with backoff.
func (c *tmdbClient) doGET(ctx context.Context, apiPath string, query url.Values, v any) error {
	if !c.isConfigured() {
		return ErrNotConfigured
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, apiPath)
	if err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		query.Set("language", lang)
	} else {
		query.Set("language", "en-US")
	}

	return retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.URL.RawQuery = query.Encode()

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type tmdbMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int64 `json:"genre_ids"`
}

type tmdbMovieListResponse struct {
	Results []tmdbMovie `json:"results"`
}

type tmdbGenreListResponse struct {
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbReleaseDatesResponse struct {
	Results []tmdbReleaseCountry `json:"results"`
}

type tmdbReleaseCountry struct {
	ISO31661     string             `json:"iso_3166_1"`
	ReleaseDates []tmdbReleaseEntry `json:"release_dates"`
}

type tmdbReleaseEntry struct {
	Certification string `json:"certification"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
}

func (c *tmdbClient) searchMovies(ctx context.Context, query string, year int) ([]tmdbMovie, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var payload tmdbMovieListResponse
	if err := c.doGET(ctx, "search/movie", q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// discoverMovies lists popular movies matching any of the given genre
// ids. Popularity ordering is the source ordering downstream filtering
// preserves.
func (c *tmdbClient) discoverMovies(ctx context.Context, genreIDs []int64) ([]tmdbMovie, error) {
	ids := make([]string, len(genreIDs))
	for i, id := range genreIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	q := url.Values{}
	q.Set("with_genres", strings.Join(ids, "|"))
	q.Set("sort_by", "popularity.desc")
	q.Set("include_adult", "false")

	var payload tmdbMovieListResponse
	if err := c.doGET(ctx, "discover/movie", q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) movieGenres(ctx context.Context) (map[int64]string, error) {
	var payload tmdbGenreListResponse
	if err := c.doGET(ctx, "genre/movie/list", nil, &payload); err != nil {
		return nil, err
	}

	byID := make(map[int64]string, len(payload.Genres))
	for _, g := range payload.Genres {
		byID[g.ID] = g.Name
	}
	return byID, nil
}

func (c *tmdbClient) movieReleaseDates(ctx context.Context, movieID int64) (tmdbReleaseDatesResponse, error) {
	var payload tmdbReleaseDatesResponse
	err := c.doGET(ctx, fmt.Sprintf("movie/%d/release_dates", movieID), nil, &payload)
	return payload, err
}

// usCertification extracts the US content rating, falling back to the
// first certification of any country, and "NR" when none exists.
func usCertification(resp tmdbReleaseDatesResponse) string {
	for _, country := range resp.Results {
		if country.ISO31661 != "US" {
			continue
		}
		for _, release := range country.ReleaseDates {
			if release.Certification != "" {
				return release.Certification
			}
		}
	}

	for _, country := range resp.Results {
		for _, release := range country.ReleaseDates {
			if release.Certification != "" {
				return release.Certification
			}
		}
	}

	return "NR"
}

func parseReleaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// scoreFallback prefers popularity but falls back to the vote average
// so zero-popularity titles still sort deterministically.
func scoreFallback(popularity, voteAverage float64) float64 {
	if popularity > 0 {
		return popularity
	}
	return voteAverage
}
