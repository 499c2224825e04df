// Package snapshots stores end-of-day portfolio snapshots as msgpack blobs
// so any past report can be reproduced without replaying the ledger.
package snapshots

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/positions"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a date.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one stored portfolio state.
type Snapshot struct {
	Date      domain.Date                `json:"date"`
	Positions []positions.PositionReport `json:"positions"`
	Netted    []string                   `json:"netted"`
	CreatedAt int64                      `json:"created_at"`
}

// snapshotPayload is the stored msgpack form. Dates serialize as strings;
// the Date type's compact internal form is a JSON concern only.
type snapshotPayload struct {
	Positions []positions.PositionReport `msgpack:"positions"`
	Netted    []string                   `msgpack:"netted"`
}

// Repository stores snapshots in portfolio.db, one row per date.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
}

// Save stores a snapshot, replacing any existing snapshot for the same date.
func (r *Repository) Save(snap Snapshot) error {
	blob, err := msgpack.Marshal(snapshotPayload{
		Positions: snap.Positions,
		Netted:    snap.Netted,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO snapshots (snapshot_date, payload, created_at) VALUES (?, ?, ?)`,
		snap.Date.String(), blob, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	r.log.Debug().Str("date", snap.Date.String()).Int("positions", len(snap.Positions)).Msg("Stored snapshot")
	return nil
}

// Get loads the snapshot for a date.
func (r *Repository) Get(date domain.Date) (*Snapshot, error) {
	var blob []byte
	var createdAt int64
	err := r.db.QueryRow(
		`SELECT payload, created_at FROM snapshots WHERE snapshot_date = ?`,
		date.String(),
	).Scan(&blob, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var payload snapshotPayload
	if err := msgpack.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &Snapshot{
		Date:      date,
		Positions: payload.Positions,
		Netted:    payload.Netted,
		CreatedAt: createdAt,
	}, nil
}

// ListDates returns the dates with a stored snapshot, newest first.
func (r *Repository) ListDates() ([]domain.Date, error) {
	rows, err := r.db.Query(`SELECT snapshot_date FROM snapshots ORDER BY snapshot_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []domain.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		date, err := domain.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("bad stored date %q: %w", s, err)
		}
		dates = append(dates, date)
	}

	return dates, rows.Err()
}

// Prune deletes snapshots older than the cutoff date, returning the number
// removed.
func (r *Repository) Prune(before domain.Date) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE snapshot_date < ?`, before.String())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}
