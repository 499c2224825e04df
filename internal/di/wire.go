package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/config"
	"github.com/andeshq/custodia/internal/scheduler"
)

// Wire initializes all dependencies and returns a fully configured container
// plus the registered jobs, keyed by name.
//
// Order of operations:
// 1. Initialize databases and apply schemas
// 2. Initialize repositories
// 3. Seed defaults (holiday calendar) and fold stored settings into config
// 4. Initialize services
// 5. Register scheduled jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, map[string]scheduler.Job, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)

	if err := container.CalendarRepo.SeedDefaults(cfg.HolidayCountry); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to seed holiday calendar: %w", err)
	}

	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to apply stored settings: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return container, jobs, nil
}
