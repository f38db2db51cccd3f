package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrsarthi/MBM-recommender/models"
	"github.com/mrsarthi/MBM-recommender/services/history"
)

type watchHistoryService interface {
	Entries() []models.WatchedEntry
	Stats() models.HistoryStats
	MarkSeen(candidate models.Candidate) error
	Reload(importPath string) error
}

var _ watchHistoryService = (*history.Service)(nil)

type HistoryHandler struct {
	Service watchHistoryService
}

func NewHistoryHandler(service watchHistoryService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// List returns every watched entry plus load statistics.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": h.Service.Entries(),
		"stats":   h.Service.Stats(),
	})
}

// MarkSeen records a movie as watched. The log write is confirmed
// before the handler reports success.
func (h *HistoryHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	var payload models.WatchedEntry
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.Service.MarkSeen(models.Candidate{TMDBID: payload.MovieID, Title: payload.Title})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrMovieIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reload rebuilds the in-memory history, optionally from a different
// import file.
func (h *HistoryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ImportPath string `json:"importPath"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.Service.Reload(payload.ImportPath); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, history.ErrImportMissing), errors.Is(err, history.ErrSchemaInvalid):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stats": h.Service.Stats()})
}
