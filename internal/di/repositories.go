package di

import (
	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/modules/calendar"
	"github.com/andeshq/custodia/internal/modules/flows"
	"github.com/andeshq/custodia/internal/modules/positions"
	"github.com/andeshq/custodia/internal/modules/settings"
	"github.com/andeshq/custodia/internal/modules/snapshots"
)

// InitializeRepositories creates all repositories on top of the open databases.
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)
	container.CalendarRepo = calendar.NewRepository(container.ConfigDB.Conn(), log)

	container.TransactionRepo = positions.NewTransactionRepository(container.LedgerDB.Conn(), log)
	container.PositionRepo = positions.NewPositionRepository(container.PortfolioDB.Conn(), log)
	container.AdjustmentRepo = positions.NewAdjustmentRepository(container.PortfolioDB.Conn(), log)

	container.FlowsRepo = flows.NewRepository(container.FlowsDB.Conn(), log)
	container.SnapshotsRepo = snapshots.NewRepository(container.PortfolioDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")
}
