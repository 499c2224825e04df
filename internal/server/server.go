// Package server provides the HTTP API server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/config"
	"github.com/andeshq/custodia/internal/di"
	calendarhandlers "github.com/andeshq/custodia/internal/modules/calendar/handlers"
	confirmationhandlers "github.com/andeshq/custodia/internal/modules/confirmations/handlers"
	flowhandlers "github.com/andeshq/custodia/internal/modules/flows/handlers"
	positionhandlers "github.com/andeshq/custodia/internal/modules/positions/handlers"
	settingshandlers "github.com/andeshq/custodia/internal/modules/settings/handlers"
	snapshothandlers "github.com/andeshq/custodia/internal/modules/snapshots/handlers"
	"github.com/andeshq/custodia/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Jobs      map[string]scheduler.Job
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config.DataDir,
			cfg.Container,
			cfg.Jobs,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	positionHandler := positionhandlers.NewHandler(s.container.PositionsService, s.log)
	confirmationHandler := confirmationhandlers.NewHandler(s.container.ConfirmationsService, s.log)
	flowHandler := flowhandlers.NewHandler(s.container.FlowsService, s.log)
	snapshotHandler := snapshothandlers.NewHandler(s.container.SnapshotsService, s.log)
	settingsHandler := settingshandlers.NewHandler(s.container.SettingsRepo, s.log)
	calendarHandler := calendarhandlers.NewHandler(
		s.container.CalendarRepo,
		s.container.HolidayProvider,
		s.cfg.HolidayCountry,
		s.log,
	)

	s.router.Route("/api", func(r chi.Router) {
		positionHandler.RegisterRoutes(r)
		confirmationHandler.RegisterRoutes(r)
		flowHandler.RegisterRoutes(r)
		snapshotHandler.RegisterRoutes(r)
		settingsHandler.RegisterRoutes(r)
		calendarHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database-stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/disk-usage", s.systemHandlers.HandleDiskUsage)
			r.Get("/jobs", s.systemHandlers.HandleJobHistory)
			r.Post("/jobs/{name}/trigger", s.systemHandlers.HandleTriggerJob)
			r.Get("/backups", s.systemHandlers.HandleListBackups)
			r.Post("/backups/{filename}/restore", s.systemHandlers.HandleStageRestore)
		})
	})
}

// handleHealth reports process liveness plus a quick integrity check of every
// open database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	databases := map[string]string{}
	for name, db := range s.container.Databases() {
		if err := db.QuickCheck(r.Context()); err != nil {
			databases[name] = err.Error()
			status = "degraded"
		} else {
			databases[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	s.systemHandlers.writeJSONStatus(w, code, map[string]interface{}{
		"status":    status,
		"databases": databases,
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
