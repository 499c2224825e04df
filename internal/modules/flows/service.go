package flows

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
)

// summaryWindowDays is how far back the dashboard summary looks.
const summaryWindowDays = 30

// Service coordinates portal ingestion with flow storage.
type Service struct {
	client *PortalClient
	repo   *Repository
	log    zerolog.Logger
}

// NewService creates a new flows service
func NewService(client *PortalClient, repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		repo:   repo,
		log:    log.With().Str("service", "flows").Logger(),
	}
}

// SyncDay fetches one day from the portal and stores it. Days with no
// published rows are a no-op, not an error; the portal publishes nothing on
// non-business days.
func (s *Service) SyncDay(ctx context.Context, date domain.Date) (int, error) {
	flowRows, err := s.client.FetchDay(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch flows for %s: %w", date, err)
	}
	if len(flowRows) == 0 {
		s.log.Debug().Str("date", date.String()).Msg("No flows published")
		return 0, nil
	}

	if err := s.repo.UpsertDay(date, flowRows); err != nil {
		return 0, fmt.Errorf("failed to store flows for %s: %w", date, err)
	}

	s.log.Info().Str("date", date.String()).Int("rows", len(flowRows)).Msg("Synced daily flows")
	return len(flowRows), nil
}

// SyncLatest syncs today's statistics. Wired as the cron job.
func (s *Service) SyncLatest(ctx context.Context) error {
	_, err := s.SyncDay(ctx, domain.Today())
	return err
}

// Daily returns the stored rows for a date range.
func (s *Service) Daily(from, to domain.Date) ([]domain.DailyFlow, error) {
	return s.repo.GetDaily(from, to)
}

// Monthly returns the running accumulations for one calendar month.
func (s *Service) Monthly(year int, month int) ([]domain.MonthlyFlowAccumulation, error) {
	return s.repo.GetMonthly(year, month)
}

// Summary computes per-category statistics over the trailing window.
func (s *Service) Summary() ([]CategorySummary, error) {
	to := domain.Today()
	from := to.AddDays(-summaryWindowDays)

	categories, err := s.repo.Categories(from, to)
	if err != nil {
		return nil, err
	}

	summaries := make([]CategorySummary, 0, len(categories))
	for _, category := range categories {
		series, err := s.repo.GetNetSeries(category, from, to)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summarize(category, series))
	}

	return summaries, nil
}
