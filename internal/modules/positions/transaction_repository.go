package positions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/rs/zerolog"
)

// TransactionRepository handles the immutable trade record store in
// ledger.db. Rows are only ever inserted as upload batches or deleted as
// whole batches; positions are always recomputed from what remains.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repository", "transactions").Logger(),
	}
}

// InsertBatch stores all records of one upload batch in a single
// transaction. Seq is assigned from the slice order, preserving the arrival
// order inside the file for same-date tie-breaking.
func (r *TransactionRepository) InsertBatch(batchID string, records []domain.TransactionRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO transactions
		(batch_id, trade_date, instrument, quantity, price, side,
		 broker_code, broker_name, settlement_condition, settlement_date,
		 close_price, opening_balance, explicit_valuation, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, rec := range records {
		var settlementDate sql.NullString
		if rec.SettlementDate != nil {
			settlementDate = sql.NullString{String: rec.SettlementDate.String(), Valid: true}
		}
		var closePrice, explicitValuation sql.NullFloat64
		if rec.ClosePrice != nil {
			closePrice = sql.NullFloat64{Float64: *rec.ClosePrice, Valid: true}
		}
		if rec.ExplicitValuation != nil {
			explicitValuation = sql.NullFloat64{Float64: *rec.ExplicitValuation, Valid: true}
		}

		_, err := stmt.Exec(
			batchID,
			rec.Date.String(),
			rec.Instrument,
			rec.Quantity,
			rec.Price,
			string(rec.Side),
			rec.BrokerCode,
			rec.BrokerName,
			string(rec.SettlementCondition),
			settlementDate,
			closePrice,
			boolToInt(rec.OpeningBalance),
			explicitValuation,
			i,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d of batch %s: %w", i, batchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Str("batch_id", batchID).Int("records", len(records)).Msg("Transaction batch inserted")
	return nil
}

// GetAll returns all stored records ordered by trade date, then insertion
// order. This is the canonical fold order.
func (r *TransactionRepository) GetAll() ([]domain.TransactionRecord, error) {
	return r.query(`SELECT ` + transactionColumns + ` FROM transactions ORDER BY trade_date, id`)
}

// GetByInstrument returns the full history of one instrument in fold order.
func (r *TransactionRepository) GetByInstrument(instrument string) ([]domain.TransactionRecord, error) {
	return r.query(
		`SELECT `+transactionColumns+` FROM transactions WHERE instrument = ? ORDER BY trade_date, id`,
		instrument,
	)
}

// DeleteBatch removes all records of an upload batch and returns how many
// rows were deleted. Callers must rebuild positions afterwards.
func (r *TransactionRepository) DeleteBatch(batchID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE batch_id = ?`, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch %s: %w", batchID, err)
	}

	deleted, _ := result.RowsAffected()
	r.log.Info().Str("batch_id", batchID).Int64("deleted", deleted).Msg("Transaction batch deleted")
	return deleted, nil
}

// BatchInfo summarizes one upload batch.
type BatchInfo struct {
	BatchID   string `json:"batch_id"`
	Records   int    `json:"records"`
	CreatedAt int64  `json:"created_at"`
}

// ListBatches returns all upload batches, newest first.
func (r *TransactionRepository) ListBatches() ([]BatchInfo, error) {
	rows, err := r.db.Query(`
		SELECT batch_id, COUNT(*), MIN(created_at)
		FROM transactions
		GROUP BY batch_id
		ORDER BY MIN(created_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchInfo
	for rows.Next() {
		var b BatchInfo
		if err := rows.Scan(&b.BatchID, &b.Records, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}
	return batches, nil
}

const transactionColumns = `id, batch_id, trade_date, instrument, quantity, price, side,
	broker_code, broker_name, settlement_condition, settlement_date,
	close_price, opening_balance, explicit_valuation, seq`

func (r *TransactionRepository) query(q string, args ...interface{}) ([]domain.TransactionRecord, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return records, nil
}

func scanTransaction(rows *sql.Rows) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var tradeDate, side, condition string
	var settlementDate sql.NullString
	var closePrice, explicitValuation sql.NullFloat64
	var openingBalance int

	err := rows.Scan(
		&rec.ID,
		&rec.BatchID,
		&tradeDate,
		&rec.Instrument,
		&rec.Quantity,
		&rec.Price,
		&side,
		&rec.BrokerCode,
		&rec.BrokerName,
		&condition,
		&settlementDate,
		&closePrice,
		&openingBalance,
		&explicitValuation,
		&rec.Seq,
	)
	if err != nil {
		return rec, err
	}

	rec.Date, err = domain.ParseDate(tradeDate)
	if err != nil {
		return rec, fmt.Errorf("bad trade_date in row %d: %w", rec.ID, err)
	}
	rec.Side = domain.Side(side)
	rec.SettlementCondition = domain.SettlementCondition(condition)
	rec.OpeningBalance = openingBalance != 0

	if settlementDate.Valid {
		d, err := domain.ParseDate(settlementDate.String)
		if err != nil {
			return rec, fmt.Errorf("bad settlement_date in row %d: %w", rec.ID, err)
		}
		rec.SettlementDate = &d
	}
	if closePrice.Valid {
		rec.ClosePrice = &closePrice.Float64
	}
	if explicitValuation.Valid {
		rec.ExplicitValuation = &explicitValuation.Float64
	}

	// The fold tie-breaks same-date records on Seq. Across batches the
	// global arrival order is the ledger row id, which also preserves the
	// file order inside each batch.
	rec.Seq = int(rec.ID)

	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
