package positions

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testDBCounter int

func setupService(t *testing.T) (*Service, *TransactionRepository) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	testDBCounter++
	ledgerDB, err := sql.Open("sqlite", fmt.Sprintf("file:ledger_test_%d?mode=memory&cache=shared", testDBCounter))
	require.NoError(t, err)
	t.Cleanup(func() { ledgerDB.Close() })

	portfolioDB, err := sql.Open("sqlite", fmt.Sprintf("file:portfolio_test_%d?mode=memory&cache=shared", testDBCounter))
	require.NoError(t, err)
	t.Cleanup(func() { portfolioDB.Close() })

	_, err = ledgerDB.Exec(`
		CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			instrument TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			side TEXT NOT NULL,
			broker_code INTEGER NOT NULL DEFAULT 0,
			broker_name TEXT NOT NULL DEFAULT '',
			settlement_condition TEXT NOT NULL DEFAULT 'CN',
			settlement_date TEXT,
			close_price REAL,
			opening_balance INTEGER NOT NULL DEFAULT 0,
			explicit_valuation REAL,
			seq INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	_, err = portfolioDB.Exec(`
		CREATE TABLE positions (
			instrument TEXT PRIMARY KEY,
			signed_quantity REAL NOT NULL,
			weighted_average_cost REAL NOT NULL,
			cost_basis_value REAL NOT NULL,
			close_price REAL,
			market_value REAL NOT NULL,
			market_adjustment REAL NOT NULL,
			classification TEXT NOT NULL,
			adjusted INTEGER NOT NULL DEFAULT 0,
			last_updated INTEGER NOT NULL
		);
		CREATE TABLE netted_instruments (
			instrument TEXT PRIMARY KEY,
			detected_at INTEGER NOT NULL
		);
		CREATE TABLE manual_adjustments (
			instrument TEXT PRIMARY KEY,
			quantity REAL,
			cost REAL,
			close_price REAL,
			updated_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	transactions := NewTransactionRepository(ledgerDB, log)
	positions := NewPositionRepository(portfolioDB, log)
	adjustments := NewAdjustmentRepository(portfolioDB, log)

	return NewService(transactions, positions, adjustments, log), transactions
}

func TestServiceRebuild(t *testing.T) {
	svc, transactions := setupService(t)

	require.NoError(t, transactions.InsertBatch("batch-1", []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.0),
		sell("2025-06-03", 100, 12.0), // nets ENEL to flat
		func() domain.TransactionRecord {
			rec := buy("2025-06-02", 50, 20.0)
			rec.Instrument = "SQM-B"
			return rec
		}(),
	}))

	result, err := svc.Rebuild()
	require.NoError(t, err)

	// ENEL netted to zero: excluded from positions, reported separately.
	require.Len(t, result.Positions, 1)
	assert.Equal(t, "SQM-B", result.Positions[0].Instrument)
	assert.Equal(t, []string{"ENEL"}, result.Netted)

	// Stored state matches the rebuild result.
	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, result.Positions[0], stored[0])

	netted, err := svc.Netting()
	require.NoError(t, err)
	assert.Equal(t, []string{"ENEL"}, netted)
}

func TestServiceAdjustmentRoundTrip(t *testing.T) {
	svc, transactions := setupService(t)

	require.NoError(t, transactions.InsertBatch("batch-1", []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.0),
		buy("2025-06-03", 50, 13.0),
	}))

	_, err := svc.Rebuild()
	require.NoError(t, err)

	before, err := svc.List()
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, 11.0, before[0].WeightedAverageCost)
	assert.False(t, before[0].Adjusted)

	// Apply a quantity override.
	qty := 200.0
	require.NoError(t, svc.SetAdjustment(domain.ManualAdjustment{Instrument: "enel", Quantity: &qty}))

	adjusted, err := svc.List()
	require.NoError(t, err)
	require.Len(t, adjusted, 1)
	assert.Equal(t, 200.0, adjusted[0].SignedQuantity)
	assert.Equal(t, 2200.0, adjusted[0].CostBasisValue) // 200 * 11.00
	assert.True(t, adjusted[0].Adjusted)

	// Removing the adjustment restores the pure computed position.
	require.NoError(t, svc.RemoveAdjustment("ENEL"))

	after, err := svc.List()
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0], after[0])
}

func TestServiceRemoveMissingAdjustment(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.RemoveAdjustment("ENEL")
	assert.ErrorIs(t, err, ErrAdjustmentNotFound)
}

func TestServiceRejectsEmptyAdjustment(t *testing.T) {
	svc, _ := setupService(t)

	qty := 1.0
	assert.Error(t, svc.SetAdjustment(domain.ManualAdjustment{Instrument: "  ", Quantity: &qty}))
	assert.Error(t, svc.SetAdjustment(domain.ManualAdjustment{Instrument: "ENEL"}))
}

func TestServiceBatchDeletionReconciliation(t *testing.T) {
	svc, transactions := setupService(t)

	require.NoError(t, transactions.InsertBatch("batch-1", []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.0),
	}))
	require.NoError(t, transactions.InsertBatch("batch-2", []domain.TransactionRecord{
		sell("2025-06-03", 40, 12.0),
	}))

	_, err := svc.Rebuild()
	require.NoError(t, err)

	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 60.0, stored[0].SignedQuantity)

	// Deleting the sell batch and rebuilding restores the buy-only state.
	deleted, err := transactions.DeleteBatch("batch-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.Rebuild()
	require.NoError(t, err)

	stored, err = svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 100.0, stored[0].SignedQuantity)
	assert.Equal(t, 1000.0, stored[0].CostBasisValue)
}

func TestTransactionRepositoryRoundTrip(t *testing.T) {
	_, transactions := setupService(t)

	close := 11.5
	valuation := 999.99
	settlement := domain.MustParseDate("2025-06-17")
	rec := buy("2025-06-13", 100, 10.0)
	rec.BrokerCode = 85
	rec.BrokerName = "CORREDORA X"
	rec.SettlementCondition = domain.SettlementCN
	rec.SettlementDate = &settlement
	rec.ClosePrice = &close
	rec.OpeningBalance = true
	rec.ExplicitValuation = &valuation

	require.NoError(t, transactions.InsertBatch("batch-1", []domain.TransactionRecord{rec}))

	got, err := transactions.GetAll()
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "ENEL", got[0].Instrument)
	assert.Equal(t, "2025-06-13", got[0].Date.String())
	require.NotNil(t, got[0].SettlementDate)
	assert.Equal(t, "2025-06-17", got[0].SettlementDate.String())
	require.NotNil(t, got[0].ClosePrice)
	assert.Equal(t, 11.5, *got[0].ClosePrice)
	assert.True(t, got[0].OpeningBalance)
	require.NotNil(t, got[0].ExplicitValuation)
	assert.Equal(t, 999.99, *got[0].ExplicitValuation)
	assert.Equal(t, 85, got[0].BrokerCode)

	batches, err := transactions.ListBatches()
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "batch-1", batches[0].BatchID)
	assert.Equal(t, 1, batches[0].Records)
}
