package calendar

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles holiday storage. Holidays live in config.db, one row
// per (country, month, day).
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holiday repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "holidays").Logger(),
	}
}

// GetMarkers returns all holiday markers for a country, ordered by month/day.
func (r *Repository) GetMarkers(country string) ([]domain.HolidayMarker, error) {
	rows, err := r.db.Query(
		`SELECT month, day FROM holidays WHERE country = ? ORDER BY month, day`,
		country,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays for %s: %w", country, err)
	}
	defer rows.Close()

	var markers []domain.HolidayMarker
	for rows.Next() {
		var month, day int
		if err := rows.Scan(&month, &day); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		markers = append(markers, domain.HolidayMarker{Month: time.Month(month), Day: day})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holidays: %w", err)
	}

	return markers, nil
}

// ReplaceMarkers replaces the full holiday set for a country in one
// transaction.
func (r *Repository) ReplaceMarkers(country string, markers []domain.HolidayMarker) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM holidays WHERE country = ?`, country); err != nil {
		return fmt.Errorf("failed to clear holidays for %s: %w", country, err)
	}

	for _, m := range markers {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO holidays (country, month, day) VALUES (?, ?, ?)`,
			country, int(m.Month), m.Day,
		)
		if err != nil {
			return fmt.Errorf("failed to insert holiday %d-%d for %s: %w", m.Month, m.Day, country, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Str("country", country).Int("count", len(markers)).Msg("Holiday set replaced")
	return nil
}

// SeedDefaults inserts the built-in Chilean holiday set when the country has
// no rows yet. The portal provider refreshes the set later; this only keeps
// settlement math sane on a fresh database.
func (r *Repository) SeedDefaults(country string) error {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM holidays WHERE country = ?`, country).Scan(&count); err != nil {
		return fmt.Errorf("failed to count holidays for %s: %w", country, err)
	}
	if count > 0 {
		return nil
	}

	defaults, ok := defaultHolidays[country]
	if !ok {
		r.log.Warn().Str("country", country).Msg("No built-in holiday set, calendar will be weekends-only")
		return nil
	}

	if err := r.ReplaceMarkers(country, defaults); err != nil {
		return err
	}

	r.log.Info().Str("country", country).Int("count", len(defaults)).Msg("Seeded built-in holiday set")
	return nil
}

// defaultHolidays holds built-in fixed-date holiday sets. Movable holidays
// are intentionally absent; they arrive via ReplaceMarkers from the holiday
// provider.
var defaultHolidays = map[string][]domain.HolidayMarker{
	"CL": {
		{Month: time.January, Day: 1},
		{Month: time.May, Day: 1},
		{Month: time.May, Day: 21},
		{Month: time.June, Day: 29},
		{Month: time.July, Day: 16},
		{Month: time.August, Day: 15},
		{Month: time.September, Day: 18},
		{Month: time.September, Day: 19},
		{Month: time.October, Day: 12},
		{Month: time.October, Day: 31},
		{Month: time.November, Day: 1},
		{Month: time.December, Day: 8},
		{Month: time.December, Day: 25},
	},
}
