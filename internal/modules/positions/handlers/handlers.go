// Package handlers provides HTTP handlers for position ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/positions"
	"github.com/rs/zerolog"
)

// Handler handles position ledger HTTP requests
type Handler struct {
	service *positions.Service
	log     zerolog.Logger
}

// NewHandler creates a new positions handler
func NewHandler(service *positions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "positions").Logger(),
	}
}

// HandleList handles GET /api/positions
// Returns all open positions with valuation fields. Netted instruments are
// not in this list; they are reported by HandleNetting.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list positions")
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []positions.PositionReport{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"positions": reports,
		},
		"metadata": map[string]interface{}{
			"count":     len(reports),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/positions/{instrument}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, instrument string) {
	report, err := h.service.Get(instrument)
	if err != nil {
		h.log.Error().Err(err).Str("instrument", instrument).Msg("Failed to get position")
		http.Error(w, "Failed to get position", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Position not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleNetting handles GET /api/positions/netting
// Returns instruments that traded to exactly zero in the last rebuild.
func (h *Handler) HandleNetting(w http.ResponseWriter, r *http.Request) {
	netted, err := h.service.Netting()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get netting report")
		http.Error(w, "Failed to get netting report", http.StatusInternalServerError)
		return
	}
	if netted == nil {
		netted = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"netted": netted,
		},
		"metadata": map[string]interface{}{
			"count":     len(netted),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRebuild handles POST /api/positions/rebuild
// Forces a full recomputation from the transaction ledger.
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Rebuild()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to rebuild positions")
		http.Error(w, "Failed to rebuild positions", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// adjustmentRequest is the body of PUT /api/positions/{instrument}/adjustment.
type adjustmentRequest struct {
	Quantity   *float64 `json:"quantity"`
	Cost       *float64 `json:"cost"`
	ClosePrice *float64 `json:"close_price"`
}

// HandleSetAdjustment handles PUT /api/positions/{instrument}/adjustment
func (h *Handler) HandleSetAdjustment(w http.ResponseWriter, r *http.Request, instrument string) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	adj := domain.ManualAdjustment{
		Instrument: instrument,
		Quantity:   req.Quantity,
		Cost:       req.Cost,
		ClosePrice: req.ClosePrice,
	}

	if err := h.service.SetAdjustment(adj); err != nil {
		h.log.Error().Err(err).Str("instrument", instrument).Msg("Failed to set adjustment")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"instrument": domain.NormalizeInstrument(instrument),
			"status":     "applied",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRemoveAdjustment handles DELETE /api/positions/{instrument}/adjustment
// Removing a missing adjustment is a 404, not a server error.
func (h *Handler) HandleRemoveAdjustment(w http.ResponseWriter, r *http.Request, instrument string) {
	err := h.service.RemoveAdjustment(instrument)
	if errors.Is(err, positions.ErrAdjustmentNotFound) {
		http.Error(w, "Adjustment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("instrument", instrument).Msg("Failed to remove adjustment")
		http.Error(w, "Failed to remove adjustment", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"instrument": domain.NormalizeInstrument(instrument),
			"status":     "removed",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
