package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/scheduler"
)

// Cron schedules, server-local time. Flows sync runs after the portal
// publishes end-of-day figures; the snapshot runs near midnight so it captures
// the day's final state; backup and maintenance run off-hours.
const (
	scheduleFlowsSync   = "30 20 * * 1-5"
	scheduleSnapshot    = "45 23 * * 1-5"
	scheduleBackup      = "0 2 * * *"
	scheduleMaintenance = "0 3 * * 0"
)

// backupRetentionDays controls how long rotated backups are kept.
const backupRetentionDays = 30

// RegisterJobs wires the recurring jobs into the scheduler and returns them
// keyed by name for manual triggering via the API.
func RegisterJobs(container *Container, log zerolog.Logger) (map[string]scheduler.Job, error) {
	jobs := map[string]scheduler.Job{}

	flowsSync := &scheduler.ContextJob{
		JobName: "flows-sync",
		Fn: func(ctx context.Context) error {
			return container.FlowsService.SyncLatest(ctx)
		},
	}
	snapshot := &scheduler.FuncJob{
		JobName: "daily-snapshot",
		Fn:      container.SnapshotsService.CaptureToday,
	}
	backup := &scheduler.ContextJob{
		JobName: "database-backup",
		Fn: func(ctx context.Context) error {
			if err := container.BackupService.CreateAndUploadBackup(ctx); err != nil {
				return err
			}
			return container.BackupService.RotateOldBackups(ctx, backupRetentionDays)
		},
	}

	for _, entry := range []struct {
		schedule string
		job      scheduler.Job
	}{
		{scheduleFlowsSync, flowsSync},
		{scheduleSnapshot, snapshot},
		{scheduleBackup, backup},
		{scheduleMaintenance, container.MaintenanceJob},
	} {
		if err := container.Scheduler.AddJob(entry.schedule, entry.job); err != nil {
			return nil, fmt.Errorf("failed to schedule job %s: %w", entry.job.Name(), err)
		}
		jobs[entry.job.Name()] = entry.job
	}

	log.Info().Int("count", len(jobs)).Msg("Scheduled jobs registered")
	return jobs, nil
}
