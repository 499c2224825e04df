package positions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PositionRepository persists computed position reports and the netting
// report in portfolio.db. The stored rows are a materialized view of the
// fold; the transaction ledger remains the source of truth.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repository", "positions").Logger(),
	}
}

// ReplaceAll swaps the stored position set for the given reports in one
// transaction. Called after every rebuild.
func (r *PositionRepository) ReplaceAll(reports []PositionReport) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}

	now := time.Now().Unix()
	for _, rep := range reports {
		var closePrice sql.NullFloat64
		if rep.MostRecentClosePrice != nil {
			closePrice = sql.NullFloat64{Float64: *rep.MostRecentClosePrice, Valid: true}
		}

		_, err := tx.Exec(`
			INSERT INTO positions
			(instrument, signed_quantity, weighted_average_cost, cost_basis_value,
			 close_price, market_value, market_adjustment, classification,
			 adjusted, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rep.Instrument,
			rep.SignedQuantity,
			rep.WeightedAverageCost,
			rep.CostBasisValue,
			closePrice,
			rep.MarketValue,
			rep.MarkToMarketAdjustment,
			rep.Classification,
			boolToInt(rep.Adjusted),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", rep.Instrument, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int("positions", len(reports)).Msg("Position set replaced")
	return nil
}

// GetAll returns all stored position reports ordered by instrument.
func (r *PositionRepository) GetAll() ([]PositionReport, error) {
	rows, err := r.db.Query(`
		SELECT instrument, signed_quantity, weighted_average_cost, cost_basis_value,
		       close_price, market_value, market_adjustment, classification, adjusted
		FROM positions ORDER BY instrument
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var reports []PositionReport
	for rows.Next() {
		var rep PositionReport
		var closePrice sql.NullFloat64
		var adjusted int

		err := rows.Scan(
			&rep.Instrument,
			&rep.SignedQuantity,
			&rep.WeightedAverageCost,
			&rep.CostBasisValue,
			&closePrice,
			&rep.MarketValue,
			&rep.MarkToMarketAdjustment,
			&rep.Classification,
			&adjusted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		if closePrice.Valid {
			rep.MostRecentClosePrice = &closePrice.Float64
		}
		rep.Adjusted = adjusted != 0
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return reports, nil
}

// GetByInstrument returns one stored position report, or nil when the
// instrument has no open position.
func (r *PositionRepository) GetByInstrument(instrument string) (*PositionReport, error) {
	rows, err := r.db.Query(`
		SELECT instrument, signed_quantity, weighted_average_cost, cost_basis_value,
		       close_price, market_value, market_adjustment, classification, adjusted
		FROM positions WHERE instrument = ?
	`, instrument)
	if err != nil {
		return nil, fmt.Errorf("failed to query position %s: %w", instrument, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	var rep PositionReport
	var closePrice sql.NullFloat64
	var adjusted int
	err = rows.Scan(
		&rep.Instrument,
		&rep.SignedQuantity,
		&rep.WeightedAverageCost,
		&rep.CostBasisValue,
		&closePrice,
		&rep.MarketValue,
		&rep.MarkToMarketAdjustment,
		&rep.Classification,
		&adjusted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position %s: %w", instrument, err)
	}
	if closePrice.Valid {
		rep.MostRecentClosePrice = &closePrice.Float64
	}
	rep.Adjusted = adjusted != 0
	return &rep, nil
}

// ReplaceNetting swaps the stored netting report.
func (r *PositionRepository) ReplaceNetting(instruments []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM netted_instruments`); err != nil {
		return fmt.Errorf("failed to clear netting report: %w", err)
	}

	now := time.Now().Unix()
	for _, instrument := range instruments {
		_, err := tx.Exec(
			`INSERT INTO netted_instruments (instrument, detected_at) VALUES (?, ?)`,
			instrument, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert netted instrument %s: %w", instrument, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetNetting returns the stored netting report in alphabetical order.
func (r *PositionRepository) GetNetting() ([]string, error) {
	rows, err := r.db.Query(`SELECT instrument FROM netted_instruments ORDER BY instrument`)
	if err != nil {
		return nil, fmt.Errorf("failed to query netting report: %w", err)
	}
	defer rows.Close()

	var instruments []string
	for rows.Next() {
		var instrument string
		if err := rows.Scan(&instrument); err != nil {
			return nil, fmt.Errorf("failed to scan netted instrument: %w", err)
		}
		instruments = append(instruments, instrument)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating netting report: %w", err)
	}
	return instruments, nil
}
