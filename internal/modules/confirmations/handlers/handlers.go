// Package handlers provides HTTP handlers for confirmation uploads and the
// back-office export.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/modules/confirmations"
	"github.com/andeshq/custodia/internal/modules/positions"
)

// maxUploadBytes caps confirmation file size. Daily files are a few hundred
// rows; 10MB is already generous.
const maxUploadBytes = 10 << 20

// Handler handles upload and export HTTP requests
type Handler struct {
	service *confirmations.Service
	log     zerolog.Logger
}

// NewHandler creates a new confirmations handler
func NewHandler(service *confirmations.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "confirmations").Logger(),
	}
}

// HandleUploadConfirmations handles POST /api/uploads/confirmations
// Accepts either a multipart form with a "file" field or a raw CSV body.
func (h *Handler) HandleUploadConfirmations(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, h.service.IngestConfirmations)
}

// HandleUploadOpeningBalance handles POST /api/uploads/opening-balance
func (h *Handler) HandleUploadOpeningBalance(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, h.service.IngestOpeningBalances)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, ingest func(io.Reader) (*confirmations.UploadResult, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, err := uploadBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := ingest(file)
	if errors.Is(err, confirmations.ErrEmptyUpload) {
		http.Error(w, "Upload contains no valid records", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to ingest upload")
		http.Error(w, "Failed to ingest upload", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListBatches handles GET /api/uploads
func (h *Handler) HandleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.ListBatches()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list upload batches")
		http.Error(w, "Failed to list upload batches", http.StatusInternalServerError)
		return
	}
	if batches == nil {
		batches = []positions.BatchInfo{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"batches": batches,
		},
		"metadata": map[string]interface{}{
			"count":     len(batches),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDeleteBatch handles DELETE /api/uploads/{batch}
// Deleting a batch re-folds the portfolio against the remaining ledger.
func (h *Handler) HandleDeleteBatch(w http.ResponseWriter, r *http.Request, batchID string) {
	err := h.service.DeleteBatch(batchID)
	if errors.Is(err, confirmations.ErrBatchNotFound) {
		http.Error(w, "Upload batch not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("batch_id", batchID).Msg("Failed to delete batch")
		http.Error(w, "Failed to delete batch", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"batch_id": batchID,
			"status":   "deleted",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleExportBackOffice handles GET /api/exports/backoffice
// Streams the ledger in the fixed back-office CSV layout.
func (h *Handler) HandleExportBackOffice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename()))

	if err := h.service.ExportBackOffice(w); err != nil {
		// Headers may already be out; just log.
		h.log.Error().Err(err).Msg("Failed to export back-office file")
	}
}

// uploadBody extracts the CSV payload: the "file" field of a multipart form,
// or the raw request body for direct posts.
func uploadBody(r *http.Request) (io.ReadCloser, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return r.Body, nil
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}
	return file, nil
}

func exportFilename() string {
	return "backoffice_" + time.Now().Format("20060102") + ".csv"
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
