package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all fund-flow routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/flows", func(r chi.Router) {
		r.Get("/daily", h.HandleDaily)
		r.Get("/monthly", h.HandleMonthly)
		r.Get("/summary", h.HandleSummary)
		r.Post("/sync", h.HandleSync)
	})
}
