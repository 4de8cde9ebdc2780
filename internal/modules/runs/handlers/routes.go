package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all run history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/runs", h.HandleList)
	r.Get("/runs/{id}", h.HandleGet)
}
