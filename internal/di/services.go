package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/config"
	"github.com/andeshq/custodia/internal/modules/calendar"
	"github.com/andeshq/custodia/internal/modules/confirmations"
	"github.com/andeshq/custodia/internal/modules/flows"
	"github.com/andeshq/custodia/internal/modules/positions"
	"github.com/andeshq/custodia/internal/modules/snapshots"
	"github.com/andeshq/custodia/internal/reliability"
	"github.com/andeshq/custodia/internal/scheduler"
)

// InitializeServices creates the service layer. Repositories must already be
// initialized on the container.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.HolidayProvider = calendar.NewProvider(container.CalendarRepo, log)

	container.PositionsService = positions.NewService(
		container.TransactionRepo,
		container.PositionRepo,
		container.AdjustmentRepo,
		log,
	)

	container.ConfirmationsService = confirmations.NewService(
		container.TransactionRepo,
		container.PositionsService,
		container.HolidayProvider,
		cfg.HolidayCountry,
		log,
	)

	portalClient := flows.NewPortalClient(cfg.PortalBaseURL, log)
	container.FlowsService = flows.NewService(portalClient, container.FlowsRepo, log)

	container.SnapshotsService = snapshots.NewService(
		container.SnapshotsRepo,
		container.PositionsService,
		log,
	)

	container.Scheduler = scheduler.New(log)

	var s3Client *reliability.S3Client
	if cfg.Backup.Enabled {
		var err error
		s3Client, err = reliability.NewS3Client(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to initialize backup storage client: %w", err)
		}
	}
	container.BackupService = reliability.NewBackupService(container.Databases(), s3Client, cfg.DataDir, log)
	container.RestoreService = reliability.NewRestoreService(s3Client, cfg.DataDir, log)
	container.MaintenanceJob = reliability.NewMaintenanceJob(container.Databases(), log)

	log.Debug().Msg("Services initialized")
	return nil
}
