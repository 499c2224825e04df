// Package main is the entry point for the Custodia back-office service.
// It ingests broker trade confirmations, maintains the incremental position
// ledger, computes settlement dates against the holiday calendar, and serves
// the REST API used by the operations desk.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andeshq/custodia/internal/config"
	"github.com/andeshq/custodia/internal/di"
	"github.com/andeshq/custodia/internal/reliability"
	"github.com/andeshq/custodia/internal/server"
	"github.com/andeshq/custodia/pkg/logger"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Custodia")

	// Apply a staged restore before any database connection is opened.
	restoreSvc := reliability.NewRestoreService(nil, cfg.DataDir, log)
	hasPendingRestore, err := restoreSvc.CheckPendingRestore()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check for pending restore")
	}
	if hasPendingRestore {
		log.Warn().Msg("Pending restore detected, applying staged restore")
		if err := restoreSvc.ExecuteStagedRestore(); err != nil {
			log.Fatal().Err(err).Msg("Failed to execute staged restore")
		}
		log.Info().Msg("Restore completed, proceeding with normal startup")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire databases, repositories, services and scheduled jobs. Stored
	// settings are folded into the config during wiring, before any service
	// that depends on them is constructed.
	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	container.Scheduler.Stop()

	// Truncate WALs so the data files are self-contained on disk.
	for name, db := range container.Databases() {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint on shutdown failed")
		}
	}

	log.Info().Msg("Custodia stopped")
}
