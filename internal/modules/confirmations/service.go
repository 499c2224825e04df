package confirmations

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/calendar"
	"github.com/andeshq/custodia/internal/modules/positions"
	"github.com/andeshq/custodia/internal/modules/settlement"
)

// ErrBatchNotFound is returned when a delete targets an unknown upload batch.
var ErrBatchNotFound = errors.New("upload batch not found")

// ErrEmptyUpload is returned when a file yields no accepted records.
var ErrEmptyUpload = errors.New("upload contains no valid records")

// UploadResult summarises one ingested file.
type UploadResult struct {
	BatchID  string     `json:"batch_id"`
	Accepted int        `json:"accepted"`
	Rejected []RowError `json:"rejected,omitempty"`
	Netted   []string   `json:"netted,omitempty"`
}

// Service ingests confirmation files into the ledger and rebuilds the
// portfolio after every mutation. Settlement dates are stamped at ingestion
// time so the stored ledger is already export-ready.
type Service struct {
	transactions *positions.TransactionRepository
	portfolio    *positions.Service
	holidays     *calendar.Provider
	country      string
	log          zerolog.Logger
}

func NewService(transactions *positions.TransactionRepository, portfolio *positions.Service, holidays *calendar.Provider, country string, log zerolog.Logger) *Service {
	return &Service{
		transactions: transactions,
		portfolio:    portfolio,
		holidays:     holidays,
		country:      country,
		log:          log.With().Str("service", "confirmations").Logger(),
	}
}

// IngestConfirmations parses, annotates and persists a trade-confirmation
// file, then re-folds the portfolio.
func (s *Service) IngestConfirmations(r io.Reader) (*UploadResult, error) {
	parsed, err := ParseConfirmations(r)
	if err != nil {
		return nil, err
	}
	return s.store(parsed)
}

// IngestOpeningBalances persists a bulk opening-balance file.
func (s *Service) IngestOpeningBalances(r io.Reader) (*UploadResult, error) {
	parsed, err := ParseOpeningBalances(r)
	if err != nil {
		return nil, err
	}
	return s.store(parsed)
}

func (s *Service) store(parsed *ParseResult) (*UploadResult, error) {
	if len(parsed.Records) == 0 {
		return nil, ErrEmptyUpload
	}

	if err := s.annotate(parsed.Records); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	if err := s.transactions.InsertBatch(batchID, parsed.Records); err != nil {
		return nil, fmt.Errorf("failed to persist batch: %w", err)
	}

	rebuilt, err := s.portfolio.Rebuild()
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild after upload: %w", err)
	}

	s.log.Info().
		Str("batch_id", batchID).
		Int("accepted", len(parsed.Records)).
		Int("rejected", len(parsed.Rejected)).
		Msg("Ingested confirmation batch")

	return &UploadResult{
		BatchID:  batchID,
		Accepted: len(parsed.Records),
		Rejected: parsed.Rejected,
		Netted:   rebuilt.Netted,
	}, nil
}

// DeleteBatch removes a previously uploaded batch and re-folds the portfolio
// so positions reconcile with the remaining ledger.
func (s *Service) DeleteBatch(batchID string) error {
	deleted, err := s.transactions.DeleteBatch(batchID)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if deleted == 0 {
		return ErrBatchNotFound
	}

	if _, err := s.portfolio.Rebuild(); err != nil {
		return fmt.Errorf("failed to rebuild after deletion: %w", err)
	}

	s.log.Info().Str("batch_id", batchID).Int64("deleted", deleted).Msg("Deleted upload batch")
	return nil
}

// ListBatches returns upload batches in arrival order.
func (s *Service) ListBatches() ([]positions.BatchInfo, error) {
	return s.transactions.ListBatches()
}

// ExportBackOffice writes the whole ledger in the back-office layout.
// Opening-balance rows are carried positions, not trades, and are skipped.
func (s *Service) ExportBackOffice(w io.Writer) error {
	records, err := s.transactions.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	trades := make([]domain.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if rec.OpeningBalance {
			continue
		}
		trades = append(trades, rec)
	}

	return WriteBackOffice(w, trades)
}

// annotate stamps settlement dates on every record using the country's
// current holiday calendar.
func (s *Service) annotate(records []domain.TransactionRecord) error {
	holidays, err := s.holidays.Get(s.country)
	if err != nil {
		return fmt.Errorf("failed to load holiday calendar: %w", err)
	}

	calc := settlement.New(calendar.New(holidays))
	calc.Annotate(records)
	return nil
}
