package positions

import "github.com/andeshq/custodia/internal/domain"

// PositionReport is the display/export view of a position: the folded
// accumulation plus derived valuation fields and the effect of any active
// manual adjustment.
type PositionReport struct {
	Instrument             string   `json:"instrument"`
	SignedQuantity         float64  `json:"signed_quantity"`
	WeightedAverageCost    float64  `json:"weighted_average_cost"`
	CostBasisValue         float64  `json:"cost_basis_value"`
	MostRecentClosePrice   *float64 `json:"most_recent_close_price,omitempty"`
	MarketValue            float64  `json:"market_value"`
	MarkToMarketAdjustment float64  `json:"mark_to_market_adjustment"`
	Classification         string   `json:"classification"`
	Adjusted               bool     `json:"adjusted"`
}

// NewReport builds a report from a position, applying revaluation.
func NewReport(pos domain.Position, adjusted bool) PositionReport {
	valuation := Revalue(pos)
	return PositionReport{
		Instrument:             pos.Instrument,
		SignedQuantity:         pos.SignedQuantity,
		WeightedAverageCost:    pos.WeightedAverageCost,
		CostBasisValue:         pos.CostBasisValue,
		MostRecentClosePrice:   pos.MostRecentClosePrice,
		MarketValue:            valuation.MarketValue,
		MarkToMarketAdjustment: valuation.MarkToMarketAdjustment,
		Classification:         pos.Classification(),
		Adjusted:               adjusted,
	}
}

// RebuildResult is the outcome of recomputing the ledger from the full
// transaction history.
type RebuildResult struct {
	Positions []PositionReport `json:"positions"`
	Netted    []string         `json:"netted"`
}
