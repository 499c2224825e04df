// Package di provides dependency injection for the application.
//
// The Container is the single source of truth for all shared instances:
// database handles, repositories, services, the cron scheduler, and the
// backup service. It is created by Wire() and handed to the HTTP server.
package di

import (
	"github.com/andeshq/custodia/internal/database"
	"github.com/andeshq/custodia/internal/modules/calendar"
	"github.com/andeshq/custodia/internal/modules/confirmations"
	"github.com/andeshq/custodia/internal/modules/flows"
	"github.com/andeshq/custodia/internal/modules/positions"
	"github.com/andeshq/custodia/internal/modules/settings"
	"github.com/andeshq/custodia/internal/modules/snapshots"
	"github.com/andeshq/custodia/internal/reliability"
	"github.com/andeshq/custodia/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases (4-database architecture: config, ledger, portfolio, flows)
	ConfigDB    *database.DB
	LedgerDB    *database.DB
	PortfolioDB *database.DB
	FlowsDB     *database.DB

	// Repositories
	SettingsRepo    *settings.Repository
	CalendarRepo    *calendar.Repository
	TransactionRepo *positions.TransactionRepository
	PositionRepo    *positions.PositionRepository
	AdjustmentRepo  *positions.AdjustmentRepository
	FlowsRepo       *flows.Repository
	SnapshotsRepo   *snapshots.Repository

	// Services
	HolidayProvider      *calendar.Provider
	PositionsService     *positions.Service
	ConfirmationsService *confirmations.Service
	FlowsService         *flows.Service
	SnapshotsService     *snapshots.Service

	// Background work
	Scheduler      *scheduler.Scheduler
	BackupService  *reliability.BackupService
	RestoreService *reliability.RestoreService
	MaintenanceJob *reliability.MaintenanceJob
}

// Databases returns every open database handle, keyed by name.
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"config":    c.ConfigDB,
		"ledger":    c.LedgerDB,
		"portfolio": c.PortfolioDB,
		"flows":     c.FlowsDB,
	}
}

// Close closes all database connections. Safe to call with a partially
// initialized container.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.ConfigDB, c.LedgerDB, c.PortfolioDB, c.FlowsDB} {
		if db != nil {
			db.Close()
		}
	}
}
