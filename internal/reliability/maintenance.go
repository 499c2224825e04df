package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/database"
)

// MaintenanceJob checkpoints WAL files and verifies database integrity.
// Scheduled nightly, after the backup.
type MaintenanceJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases map[string]*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *MaintenanceJob) Name() string {
	return "database-maintenance"
}

// Run checkpoints and health-checks every database. A failing database is
// logged and reported but does not stop the others from being maintained.
func (j *MaintenanceJob) Run() error {
	var firstErr error

	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.HealthCheck(ctx)
		cancel()
		if err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Health check failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if stats, err := db.GetStats(); err == nil {
			j.log.Debug().
				Str("database", name).
				Int64("size_bytes", stats.SizeBytes).
				Int64("wal_bytes", stats.WALSizeBytes).
				Msg("Database maintained")
		}
	}

	return firstErr
}
