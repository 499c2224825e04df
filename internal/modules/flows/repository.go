package flows

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
)

// Repository stores daily flow rows and monthly running accumulations in
// flows.db. The monthly table is derived state; UpsertDay keeps both in sync
// inside one transaction.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new flows repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "flows").Logger(),
	}
}

// UpsertDay stores one day's rows and rebuilds that month's accumulation for
// the affected categories. Re-ingesting a day replaces its rows instead of
// double counting.
func (r *Repository) UpsertDay(date domain.Date, flowRows []domain.DailyFlow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM daily_flows WHERE flow_date = ?`, date.String()); err != nil {
		return fmt.Errorf("failed to clear existing day: %w", err)
	}

	now := time.Now().Unix()
	for _, row := range flowRows {
		_, err := tx.Exec(
			`INSERT INTO daily_flows (flow_date, category, deposits, withdrawals, net, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			row.Date.String(), row.Category, row.Deposits, row.Withdrawals, row.Net, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert daily flow: %w", err)
		}
	}

	if err := r.rebuildMonth(tx, date.Year(), int(date.Month())); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.log.Debug().Str("date", date.String()).Int("rows", len(flowRows)).Msg("Stored daily flows")
	return nil
}

// rebuildMonth recomputes the running sums for one calendar month from the
// daily rows. Cheap at this row volume and immune to drift.
func (r *Repository) rebuildMonth(tx *sql.Tx, year int, month int) error {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)

	if _, err := tx.Exec(`DELETE FROM monthly_flows WHERE year = ? AND month = ?`, year, month); err != nil {
		return fmt.Errorf("failed to clear monthly rows: %w", err)
	}

	_, err := tx.Exec(
		`INSERT INTO monthly_flows (year, month, category, deposits, withdrawals, net, last_date)
		 SELECT ?, ?, category, SUM(deposits), SUM(withdrawals), SUM(net), MAX(flow_date)
		 FROM daily_flows
		 WHERE flow_date LIKE ? || '%'
		 GROUP BY category`,
		year, month, prefix,
	)
	if err != nil {
		return fmt.Errorf("failed to rebuild monthly rows: %w", err)
	}

	return nil
}

// GetDaily returns daily rows in a date range, oldest first.
func (r *Repository) GetDaily(from, to domain.Date) ([]domain.DailyFlow, error) {
	rows, err := r.db.Query(
		`SELECT flow_date, category, deposits, withdrawals, net
		 FROM daily_flows
		 WHERE flow_date >= ? AND flow_date <= ?
		 ORDER BY flow_date, category`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily flows: %w", err)
	}
	defer rows.Close()

	var flowRows []domain.DailyFlow
	for rows.Next() {
		var row domain.DailyFlow
		var dateStr string
		if err := rows.Scan(&dateStr, &row.Category, &row.Deposits, &row.Withdrawals, &row.Net); err != nil {
			return nil, fmt.Errorf("failed to scan daily flow: %w", err)
		}
		row.Date, err = domain.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad stored date %q: %w", dateStr, err)
		}
		flowRows = append(flowRows, row)
	}

	return flowRows, rows.Err()
}

// GetMonthly returns the accumulations for one calendar month.
func (r *Repository) GetMonthly(year int, month int) ([]domain.MonthlyFlowAccumulation, error) {
	rows, err := r.db.Query(
		`SELECT year, month, category, deposits, withdrawals, net, last_date
		 FROM monthly_flows
		 WHERE year = ? AND month = ?
		 ORDER BY category`,
		year, month,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly flows: %w", err)
	}
	defer rows.Close()

	var accs []domain.MonthlyFlowAccumulation
	for rows.Next() {
		var acc domain.MonthlyFlowAccumulation
		var lastDate string
		if err := rows.Scan(&acc.Year, &acc.Month, &acc.Category, &acc.Deposits, &acc.Withdrawals, &acc.Net, &lastDate); err != nil {
			return nil, fmt.Errorf("failed to scan monthly flow: %w", err)
		}
		acc.LastDate, err = domain.ParseDate(lastDate)
		if err != nil {
			return nil, fmt.Errorf("bad stored date %q: %w", lastDate, err)
		}
		accs = append(accs, acc)
	}

	return accs, rows.Err()
}

// GetNetSeries returns the daily net series for one category, oldest first.
// Used by the analytics summary.
func (r *Repository) GetNetSeries(category string, from, to domain.Date) ([]float64, error) {
	rows, err := r.db.Query(
		`SELECT net FROM daily_flows
		 WHERE category = ? AND flow_date >= ? AND flow_date <= ?
		 ORDER BY flow_date`,
		category, from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query net series: %w", err)
	}
	defer rows.Close()

	var series []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan net value: %w", err)
		}
		series = append(series, v)
	}

	return series, rows.Err()
}

// Categories returns the distinct categories seen in a date range.
func (r *Repository) Categories(from, to domain.Date) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT category FROM daily_flows
		 WHERE flow_date >= ? AND flow_date <= ?
		 ORDER BY category`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
