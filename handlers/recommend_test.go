package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrsarthi/MBM-recommender/handlers"
	"github.com/mrsarthi/MBM-recommender/models"
	"github.com/mrsarthi/MBM-recommender/services/recommend"
)

type stubRecommender struct {
	results []models.Candidate
	err     error

	gotMood    string
	gotContext string
	gotLimit   int
	gotQuery   string
	gotYear    int
}

func (s *stubRecommender) RecommendByMood(_ context.Context, mood, contextLabel string, limit int) ([]models.Candidate, error) {
	s.gotMood, s.gotContext, s.gotLimit = mood, contextLabel, limit
	return s.results, s.err
}

func (s *stubRecommender) SearchFiltered(_ context.Context, query string, year int) ([]models.Candidate, error) {
	s.gotQuery, s.gotYear = query, year
	return s.results, s.err
}

func TestMoodsEndpoint(t *testing.T) {
	h := handlers.NewRecommendHandler(&stubRecommender{})

	rec := httptest.NewRecorder()
	h.Moods(rec, httptest.NewRequest(http.MethodGet, "/api/moods", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Moods []string `json:"moods"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Moods) != 5 {
		t.Fatalf("expected 5 moods, got %v", resp.Moods)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	stub := &stubRecommender{results: []models.Candidate{{TMDBID: 603, Title: "The Matrix", Score: 4.2}}}
	h := handlers.NewRecommendHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations?mood=tense&context=alone&limit=10", nil)
	rec := httptest.NewRecorder()
	h.Recommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.gotMood != "tense" || stub.gotContext != "alone" || stub.gotLimit != 10 {
		t.Fatalf("unexpected call: mood=%q context=%q limit=%d", stub.gotMood, stub.gotContext, stub.gotLimit)
	}

	var resp struct {
		Results []models.Candidate `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "The Matrix" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestRecommendationsRequiresMood(t *testing.T) {
	h := handlers.NewRecommendHandler(&stubRecommender{})

	rec := httptest.NewRecorder()
	h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestRecommendationsUnknownMood(t *testing.T) {
	h := handlers.NewRecommendHandler(&stubRecommender{err: recommend.ErrUnknownMood})

	rec := httptest.NewRecorder()
	h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations?mood=grumpy", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown mood, got %d", rec.Code)
	}
}

func TestRecommendationsRejectsBadLimit(t *testing.T) {
	h := handlers.NewRecommendHandler(&stubRecommender{})

	rec := httptest.NewRecorder()
	h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations?mood=happy&limit=lots", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad limit, got %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	stub := &stubRecommender{results: []models.Candidate{{TMDBID: 27205, Title: "Inception"}}}
	h := handlers.NewRecommendHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=inception&year=2010", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if stub.gotQuery != "inception" || stub.gotYear != 2010 {
		t.Fatalf("unexpected call: query=%q year=%d", stub.gotQuery, stub.gotYear)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	h := handlers.NewRecommendHandler(&stubRecommender{err: recommend.ErrQueryRequired})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
