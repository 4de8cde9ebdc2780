package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all QUBO routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-qubo", h.HandleGenerate)
}
