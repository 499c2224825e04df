// Package handlers provides HTTP handlers for fund-flow statistics.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/flows"
)

// Handler handles fund-flow HTTP requests
type Handler struct {
	service *flows.Service
	log     zerolog.Logger
}

// NewHandler creates a new flows handler
func NewHandler(service *flows.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "flows").Logger(),
	}
}

// HandleDaily handles GET /api/flows/daily?from=YYYY-MM-DD&to=YYYY-MM-DD
// Defaults to the trailing 30 days.
func (h *Handler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	to := domain.Today()
	from := to.AddDays(-30)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = domain.ParseDate(v); err != nil {
			http.Error(w, "Invalid from date", http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = domain.ParseDate(v); err != nil {
			http.Error(w, "Invalid to date", http.StatusBadRequest)
			return
		}
	}

	flowRows, err := h.service.Daily(from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get daily flows")
		http.Error(w, "Failed to get daily flows", http.StatusInternalServerError)
		return
	}
	if flowRows == nil {
		flowRows = []domain.DailyFlow{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"flows": flowRows,
			"from":  from,
			"to":    to,
		},
		"metadata": map[string]interface{}{
			"count":     len(flowRows),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleMonthly handles GET /api/flows/monthly?year=YYYY&month=M
// Defaults to the current month.
func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	today := domain.Today()
	year := today.Year()
	month := int(today.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	accs, err := h.service.Monthly(year, month)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get monthly flows")
		http.Error(w, "Failed to get monthly flows", http.StatusInternalServerError)
		return
	}
	if accs == nil {
		accs = []domain.MonthlyFlowAccumulation{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"accumulations": accs,
			"year":          year,
			"month":         month,
		},
		"metadata": map[string]interface{}{
			"count":     len(accs),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSummary handles GET /api/flows/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute flow summary")
		http.Error(w, "Failed to compute flow summary", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []flows.CategorySummary{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"summaries": summaries,
		},
		"metadata": map[string]interface{}{
			"count":     len(summaries),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSync handles POST /api/flows/sync?date=YYYY-MM-DD
// Manual trigger for the portal sync, defaulting to today.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	date := domain.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := domain.ParseDate(v)
		if err != nil {
			http.Error(w, "Invalid date", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	rows, err := h.service.SyncDay(r.Context(), date)
	if err != nil {
		h.log.Error().Err(err).Str("date", date.String()).Msg("Failed to sync flows")
		http.Error(w, "Failed to sync flows", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"date": date,
			"rows": rows,
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
