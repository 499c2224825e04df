package snapshots

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/positions"
)

// retentionDays is how long daily snapshots are kept before pruning.
const retentionDays = 370

// Service captures and serves portfolio snapshots.
type Service struct {
	repo      *Repository
	portfolio *positions.Service
	log       zerolog.Logger
}

// NewService creates a new snapshot service
func NewService(repo *Repository, portfolio *positions.Service, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		portfolio: portfolio,
		log:       log.With().Str("service", "snapshots").Logger(),
	}
}

// CaptureToday stores the current portfolio state under today's date. Wired
// as the end-of-day cron job; calling it twice on one day overwrites.
func (s *Service) CaptureToday() error {
	return s.Capture(domain.Today())
}

// Capture stores the current portfolio state under the given date.
func (s *Service) Capture(date domain.Date) error {
	reports, err := s.portfolio.List()
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}
	netted, err := s.portfolio.Netting()
	if err != nil {
		return fmt.Errorf("failed to load netting report: %w", err)
	}

	if err := s.repo.Save(Snapshot{
		Date:      date,
		Positions: reports,
		Netted:    netted,
	}); err != nil {
		return err
	}

	pruned, err := s.repo.Prune(date.AddDays(-retentionDays))
	if err != nil {
		return err
	}
	if pruned > 0 {
		s.log.Info().Int64("pruned", pruned).Msg("Pruned old snapshots")
	}

	s.log.Info().Str("date", date.String()).Int("positions", len(reports)).Msg("Captured snapshot")
	return nil
}

// Get returns the snapshot for a date.
func (s *Service) Get(date domain.Date) (*Snapshot, error) {
	return s.repo.Get(date)
}

// ListDates returns the available snapshot dates, newest first.
func (s *Service) ListDates() ([]domain.Date, error) {
	return s.repo.ListDates()
}
