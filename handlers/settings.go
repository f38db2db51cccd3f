package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mrsarthi/MBM-recommender/config"
)

type metadataService interface {
	UpdateAPIKey(apiKey, language string)
}

type reloadableHistory interface {
	Reload(importPath string) error
}

type SettingsHandler struct {
	Manager  *config.Manager
	Metadata metadataService
	History  reloadableHistory
}

func NewSettingsHandler(manager *config.Manager, metadata metadataService, history reloadableHistory) *SettingsHandler {
	return &SettingsHandler{Manager: manager, Metadata: metadata, History: history}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Manager.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

// Update persists new settings and applies the ones services can pick
// up without a restart: provider credentials and the import file.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, err := h.Manager.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var incoming config.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&incoming); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Manager.Save(incoming); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.Metadata != nil && (incoming.Metadata.TMDBAPIKey != current.Metadata.TMDBAPIKey || incoming.Metadata.Language != current.Metadata.Language) {
		h.Metadata.UpdateAPIKey(incoming.Metadata.TMDBAPIKey, incoming.Metadata.Language)
	}

	if h.History != nil && incoming.History.ImportPath != current.History.ImportPath {
		if err := h.History.Reload(incoming.History.ImportPath); err != nil {
			log.Printf("[settings] history reload after import path change failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(incoming)
}
