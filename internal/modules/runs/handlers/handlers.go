// Package handlers provides HTTP handlers for run history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/modules/runs"
)

// Handler handles run history HTTP requests
type Handler struct {
	repo *runs.Repository
	log  zerolog.Logger
}

// NewHandler creates a new runs handler
func NewHandler(repo *runs.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "runs").Logger(),
	}
}

// ListResponse is returned by GET /api/runs
type ListResponse struct {
	Success bool          `json:"success"`
	Runs    []runs.Record `json:"runs"`
	Count   int           `json:"count"`
	Error   string        `json:"error,omitempty"`
}

// GetResponse is returned by GET /api/runs/{id}
type GetResponse struct {
	Success bool         `json:"success"`
	Run     *runs.Record `json:"run,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// HandleList handles GET /api/runs
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeJSON(w, http.StatusBadRequest, ListResponse{
				Success: false,
				Error:   "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	records, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		h.writeJSON(w, http.StatusInternalServerError, ListResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if records == nil {
		records = []runs.Record{}
	}
	h.writeJSON(w, http.StatusOK, ListResponse{
		Success: true,
		Runs:    records,
		Count:   len(records),
	})
}

// HandleGet handles GET /api/runs/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.repo.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, runs.ErrNotFound) {
			status = http.StatusNotFound
		} else {
			h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		}
		h.writeJSON(w, status, GetResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, GetResponse{
		Success: true,
		Run:     record,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
