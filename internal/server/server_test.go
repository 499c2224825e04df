package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeshq/custodia/internal/config"
	"github.com/andeshq/custodia/internal/di"
)

// setupTestServer wires a full container against databases in a temp dir.
func setupTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	cfg := &config.Config{
		DataDir:        t.TempDir(),
		Port:           0,
		LogLevel:       "error",
		HolidayCountry: "CL",
		PortalBaseURL:  "http://127.0.0.1:1", // never dialed in these tests
	}

	container, jobs, err := di.Wire(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return New(Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
		Port:      0,
		DevMode:   true,
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])

	databases := response["databases"].(map[string]interface{})
	for _, name := range []string{"config", "ledger", "portfolio", "flows"} {
		assert.Equal(t, "ok", databases[name])
	}
}

func TestRoutesRegistered(t *testing.T) {
	srv := setupTestServer(t)

	for _, path := range []string{
		"/api/positions",
		"/api/positions/netting",
		"/api/uploads",
		"/api/flows/summary",
		"/api/snapshots",
		"/api/settings",
		"/api/calendar/holidays",
		"/api/system/database-stats",
		"/api/system/jobs",
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestUploadThroughRouter(t *testing.T) {
	srv := setupTestServer(t)

	csv := "fecha;instrumento;operacion;cantidad;precio;monto;corredor_codigo;corredor_nombre;condicion;precio_cierre\n" +
		"2025-06-13;ENEL;C;100;50.5;5050;85;BTG Pactual;CN;51.0\n"
	req := httptest.NewRequest("POST", "/api/uploads/confirmations", strings.NewReader(csv))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest("GET", "/api/positions", nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].(map[string]interface{})
	positions := data["positions"].([]interface{})
	require.Len(t, positions, 1)
	assert.Equal(t, "ENEL", positions[0].(map[string]interface{})["instrument"])
}

func TestTriggerUnknownJob(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("POST", "/api/system/jobs/no-such-job/trigger", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
