// Package flows ingests daily fund-flow statistics from the statistics
// portal and maintains month-to-date running accumulations per category.
package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/andeshq/custodia/internal/domain"
)

// PortalClient fetches daily fund-flow statistics from the portal's JSON
// endpoint.
type PortalClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewPortalClient creates a new portal client
func NewPortalClient(baseURL string, log zerolog.Logger) *PortalClient {
	return &PortalClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "flows-portal").Logger(),
	}
}

// portalResponse is the portal's daily statistics payload.
type portalResponse struct {
	Date       string `json:"date"`
	Categories []struct {
		Name        string  `json:"name"`
		Deposits    float64 `json:"deposits"`
		Withdrawals float64 `json:"withdrawals"`
	} `json:"categories"`
}

// FetchDay fetches the fund-flow rows published for one date.
func (c *PortalClient) FetchDay(ctx context.Context, date domain.Date) ([]domain.DailyFlow, error) {
	url := fmt.Sprintf("%s/api/flows?date=%s", c.baseURL, date)
	c.log.Debug().Str("url", url).Msg("Fetching daily flows")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned status %d", resp.StatusCode)
	}

	var payload portalResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode portal response: %w", err)
	}

	rowDate := date
	if payload.Date != "" {
		parsed, err := domain.ParseDate(payload.Date)
		if err != nil {
			return nil, fmt.Errorf("portal returned bad date %q: %w", payload.Date, err)
		}
		rowDate = parsed
	}

	flowRows := make([]domain.DailyFlow, 0, len(payload.Categories))
	for _, cat := range payload.Categories {
		if cat.Name == "" {
			continue
		}
		flowRows = append(flowRows, domain.DailyFlow{
			Date:        rowDate,
			Category:    cat.Name,
			Deposits:    cat.Deposits,
			Withdrawals: cat.Withdrawals,
			Net:         cat.Deposits - cat.Withdrawals,
		})
	}

	return flowRows, nil
}
