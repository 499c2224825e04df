package positions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/rs/zerolog"
)

// ErrAdjustmentNotFound is returned when removing an adjustment that does
// not exist. It is a not-found condition, not a fatal error; handlers map it
// to 404.
var ErrAdjustmentNotFound = errors.New("manual adjustment not found")

// AdjustmentRepository persists manual adjustments in portfolio.db, at most
// one active adjustment per instrument. There is no pre-override snapshot:
// removing an adjustment requires a full re-fold to restore computed values.
type AdjustmentRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAdjustmentRepository creates a new adjustment repository
func NewAdjustmentRepository(db *sql.DB, log zerolog.Logger) *AdjustmentRepository {
	return &AdjustmentRepository{
		db:  db,
		log: log.With().Str("repository", "adjustments").Logger(),
	}
}

// Upsert stores (or replaces) the adjustment for an instrument.
func (r *AdjustmentRepository) Upsert(adj domain.ManualAdjustment) error {
	var quantity, cost, closePrice sql.NullFloat64
	if adj.Quantity != nil {
		quantity = sql.NullFloat64{Float64: *adj.Quantity, Valid: true}
	}
	if adj.Cost != nil {
		cost = sql.NullFloat64{Float64: *adj.Cost, Valid: true}
	}
	if adj.ClosePrice != nil {
		closePrice = sql.NullFloat64{Float64: *adj.ClosePrice, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO manual_adjustments
		(instrument, quantity, cost, close_price, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, adj.Instrument, quantity, cost, closePrice, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert adjustment for %s: %w", adj.Instrument, err)
	}

	r.log.Info().Str("instrument", adj.Instrument).Msg("Manual adjustment stored")
	return nil
}

// Get returns the adjustment for an instrument, or nil when none is active.
func (r *AdjustmentRepository) Get(instrument string) (*domain.ManualAdjustment, error) {
	rows, err := r.db.Query(
		`SELECT instrument, quantity, cost, close_price FROM manual_adjustments WHERE instrument = ?`,
		instrument,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustment for %s: %w", instrument, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	adj, err := scanAdjustment(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan adjustment for %s: %w", instrument, err)
	}
	return &adj, nil
}

// GetAll returns all active adjustments keyed by instrument.
func (r *AdjustmentRepository) GetAll() (map[string]domain.ManualAdjustment, error) {
	rows, err := r.db.Query(`SELECT instrument, quantity, cost, close_price FROM manual_adjustments`)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := make(map[string]domain.ManualAdjustment)
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments[adj.Instrument] = adj
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adjustments: %w", err)
	}
	return adjustments, nil
}

// Delete removes the adjustment for an instrument. Returns
// ErrAdjustmentNotFound when no adjustment was active.
func (r *AdjustmentRepository) Delete(instrument string) error {
	result, err := r.db.Exec(`DELETE FROM manual_adjustments WHERE instrument = ?`, instrument)
	if err != nil {
		return fmt.Errorf("failed to delete adjustment for %s: %w", instrument, err)
	}

	deleted, _ := result.RowsAffected()
	if deleted == 0 {
		return ErrAdjustmentNotFound
	}

	r.log.Info().Str("instrument", instrument).Msg("Manual adjustment removed")
	return nil
}

func scanAdjustment(rows *sql.Rows) (domain.ManualAdjustment, error) {
	var adj domain.ManualAdjustment
	var quantity, cost, closePrice sql.NullFloat64

	if err := rows.Scan(&adj.Instrument, &quantity, &cost, &closePrice); err != nil {
		return adj, err
	}
	if quantity.Valid {
		adj.Quantity = &quantity.Float64
	}
	if cost.Valid {
		adj.Cost = &cost.Float64
	}
	if closePrice.Valid {
		adj.ClosePrice = &closePrice.Float64
	}
	return adj, nil
}
