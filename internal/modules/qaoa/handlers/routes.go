package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all QAOA routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/solve-qaoa", h.HandleSolve)
	r.Post("/run-qaoa", h.HandleRun)
}
