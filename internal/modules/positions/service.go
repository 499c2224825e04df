package positions

import (
	"fmt"
	"sort"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/utils"
	"github.com/rs/zerolog"
)

// Service orchestrates the position ledger: it recomputes positions from the
// full transaction history, applies manual adjustments on top, and persists
// the resulting reports plus the netting report.
type Service struct {
	transactions *TransactionRepository
	positions    *PositionRepository
	adjustments  *AdjustmentRepository
	log          zerolog.Logger
}

// NewService creates a new positions service
func NewService(
	transactions *TransactionRepository,
	positions *PositionRepository,
	adjustments *AdjustmentRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		positions:    positions,
		adjustments:  adjustments,
		log:          log.With().Str("service", "positions").Logger(),
	}
}

// Rebuild recomputes every position from the complete transaction history
// and replaces the stored reports. Flat positions are excluded from the
// report list and surfaced through the netting report instead.
//
// This is the only write path for positions: uploads, batch deletions, and
// adjustment changes all funnel through a full rebuild, so stored state can
// never drift from the ledger.
func (s *Service) Rebuild() (*RebuildResult, error) {
	defer utils.OperationTimer("positions_rebuild", s.log)()

	records, err := s.transactions.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	folded := FoldAll(records)
	netted := DetectNetting(folded)

	adjustments, err := s.adjustments.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load adjustments: %w", err)
	}

	instruments := make([]string, 0, len(folded))
	for instrument := range folded {
		instruments = append(instruments, instrument)
	}
	sort.Strings(instruments)

	reports := make([]PositionReport, 0, len(folded))
	for _, instrument := range instruments {
		pos := folded[instrument]
		if pos.IsFlat() {
			continue
		}

		adjusted := false
		if adj, ok := adjustments[instrument]; ok {
			pos = ApplyAdjustment(pos, adj)
			adjusted = true
		}

		reports = append(reports, NewReport(pos, adjusted))
	}

	if err := s.positions.ReplaceAll(reports); err != nil {
		return nil, fmt.Errorf("failed to store positions: %w", err)
	}
	if err := s.positions.ReplaceNetting(netted); err != nil {
		return nil, fmt.Errorf("failed to store netting report: %w", err)
	}

	s.log.Info().
		Int("records", len(records)).
		Int("positions", len(reports)).
		Int("netted", len(netted)).
		Msg("Position ledger rebuilt")

	return &RebuildResult{Positions: reports, Netted: netted}, nil
}

// List returns the stored position reports.
func (s *Service) List() ([]PositionReport, error) {
	return s.positions.GetAll()
}

// Get returns one stored position report, or nil when the instrument has no
// open position.
func (s *Service) Get(instrument string) (*PositionReport, error) {
	return s.positions.GetByInstrument(domain.NormalizeInstrument(instrument))
}

// Netting returns the stored netting report.
func (s *Service) Netting() ([]string, error) {
	return s.positions.GetNetting()
}

// SetAdjustment stores a manual adjustment and rebuilds, so the stored
// reports immediately reflect the override.
func (s *Service) SetAdjustment(adj domain.ManualAdjustment) error {
	adj.Instrument = domain.NormalizeInstrument(adj.Instrument)
	if adj.Instrument == "" {
		return fmt.Errorf("adjustment instrument is empty")
	}
	if adj.Quantity == nil && adj.Cost == nil && adj.ClosePrice == nil {
		return fmt.Errorf("adjustment for %s has no override fields", adj.Instrument)
	}

	if err := s.adjustments.Upsert(adj); err != nil {
		return err
	}

	if _, err := s.Rebuild(); err != nil {
		return fmt.Errorf("failed to rebuild after adjustment: %w", err)
	}
	return nil
}

// RemoveAdjustment deletes an adjustment and rebuilds from the full history
// to restore computed values. There is no cached pre-override snapshot.
// Returns ErrAdjustmentNotFound when no adjustment was active.
func (s *Service) RemoveAdjustment(instrument string) error {
	if err := s.adjustments.Delete(domain.NormalizeInstrument(instrument)); err != nil {
		return err
	}

	if _, err := s.Rebuild(); err != nil {
		return fmt.Errorf("failed to rebuild after adjustment removal: %w", err)
	}
	return nil
}
