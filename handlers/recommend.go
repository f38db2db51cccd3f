package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mrsarthi/MBM-recommender/models"
	"github.com/mrsarthi/MBM-recommender/services/recommend"
)

type recommendService interface {
	RecommendByMood(ctx context.Context, mood, contextLabel string, limit int) ([]models.Candidate, error)
	SearchFiltered(ctx context.Context, query string, year int) ([]models.Candidate, error)
}

var _ recommendService = (*recommend.Service)(nil)

type RecommendHandler struct {
	Service recommendService
}

func NewRecommendHandler(service recommendService) *RecommendHandler {
	return &RecommendHandler{Service: service}
}

// Moods lists the supported mood labels.
func (h *RecommendHandler) Moods(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"moods": recommend.Moods()})
}

// Recommendations returns unseen movies for a mood, best first.
func (h *RecommendHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	mood := strings.TrimSpace(r.URL.Query().Get("mood"))
	if mood == "" {
		http.Error(w, "mood is required", http.StatusBadRequest)
		return
	}
	contextLabel := r.URL.Query().Get("context")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := h.Service.RecommendByMood(r.Context(), mood, contextLabel, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, recommend.ErrUnknownMood) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

// Search looks up movies by title, hiding already watched ones.
func (h *RecommendHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "year must be an integer", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	results, err := h.Service.SearchFiltered(r.Context(), query, year)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, recommend.ErrQueryRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}
