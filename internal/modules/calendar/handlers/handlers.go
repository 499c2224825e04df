// Package handlers provides HTTP handlers for the holiday calendar.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/calendar"
)

// Handler handles calendar HTTP requests
type Handler struct {
	repo     *calendar.Repository
	provider *calendar.Provider
	country  string
	log      zerolog.Logger
}

// NewHandler creates a new calendar handler
func NewHandler(repo *calendar.Repository, provider *calendar.Provider, country string, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		provider: provider,
		country:  country,
		log:      log.With().Str("handler", "calendar").Logger(),
	}
}

// HandleGetHolidays handles GET /api/calendar/holidays
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.provider.Get(h.country)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holidays")
		http.Error(w, "Failed to get holidays", http.StatusInternalServerError)
		return
	}

	markers := holidays.Markers()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"country":  h.country,
			"holidays": markers,
		},
		"metadata": map[string]interface{}{
			"count":     len(markers),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// holidayUpdate is the body of PUT /api/calendar/holidays.
type holidayUpdate struct {
	Holidays []domain.HolidayMarker `json:"holidays"`
}

// HandleReplaceHolidays handles PUT /api/calendar/holidays
// Replaces the full holiday set and invalidates the cached calendar so the
// next settlement computation sees the new set.
func (h *Handler) HandleReplaceHolidays(w http.ResponseWriter, r *http.Request) {
	var update holidayUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	for _, m := range update.Holidays {
		if m.Month < time.January || m.Month > time.December || m.Day < 1 || m.Day > 31 {
			http.Error(w, "Invalid holiday marker", http.StatusBadRequest)
			return
		}
	}

	if err := h.repo.ReplaceMarkers(h.country, update.Holidays); err != nil {
		h.log.Error().Err(err).Msg("Failed to replace holidays")
		http.Error(w, "Failed to replace holidays", http.StatusInternalServerError)
		return
	}
	h.provider.Invalidate(h.country)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"country": h.country,
			"status":  "replaced",
		},
		"metadata": map[string]interface{}{
			"count":     len(update.Holidays),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleBusinessDay handles GET /api/calendar/business-day?date=YYYY-MM-DD
func (h *Handler) HandleBusinessDay(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		http.Error(w, "date parameter is required", http.StatusBadRequest)
		return
	}
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}

	holidays, err := h.provider.Get(h.country)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holidays")
		http.Error(w, "Failed to get holidays", http.StatusInternalServerError)
		return
	}

	cal := calendar.New(holidays)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"date":         date,
			"business_day": cal.IsBusinessDay(date),
			"holiday":      cal.IsHoliday(date),
			"weekday":      date.Weekday().String(),
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
