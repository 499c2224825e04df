package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all position ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/netting", h.HandleNetting)
		r.Post("/rebuild", h.HandleRebuild)
		r.Get("/{instrument}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGet(w, r, chi.URLParam(r, "instrument"))
		})
		r.Put("/{instrument}/adjustment", func(w http.ResponseWriter, r *http.Request) {
			h.HandleSetAdjustment(w, r, chi.URLParam(r, "instrument"))
		})
		r.Delete("/{instrument}/adjustment", func(w http.ResponseWriter, r *http.Request) {
			h.HandleRemoveAdjustment(w, r, chi.URLParam(r, "instrument"))
		})
	})
}
