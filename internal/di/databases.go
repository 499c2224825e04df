package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/config"
	"github.com/andeshq/custodia/internal/database"
)

// InitializeDatabases opens all 4 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. config.db - Application configuration (settings, holidays)
	configDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("config"),
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	// 2. ledger.db - Immutable transaction audit trail
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("ledger"),
		Profile: database.ProfileLedger, // Maximum safety for the audit trail
		Name:    "ledger",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// 3. portfolio.db - Derived position state (positions, netting, adjustments, snapshots)
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("portfolio"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize portfolio database: %w", err)
	}
	container.PortfolioDB = portfolioDB

	// 4. flows.db - Fund flow statistics (daily rows, monthly accumulations)
	flowsDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("flows"),
		Profile: database.ProfileStandard,
		Name:    "flows",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize flows database: %w", err)
	}
	container.FlowsDB = flowsDB

	// Apply schemas to all databases (single source of truth)
	for _, db := range []*database.DB{configDB, ledgerDB, portfolioDB, flowsDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")

	return container, nil
}
