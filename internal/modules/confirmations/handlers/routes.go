package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers upload and export routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/uploads", func(r chi.Router) {
		r.Get("/", h.HandleListBatches)
		r.Post("/confirmations", h.HandleUploadConfirmations)
		r.Post("/opening-balance", h.HandleUploadOpeningBalance)
		r.Delete("/{batch}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeleteBatch(w, r, chi.URLParam(r, "batch"))
		})
	})

	r.Get("/exports/backoffice", h.HandleExportBackOffice)
}
