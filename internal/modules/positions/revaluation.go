package positions

import "github.com/andeshq/custodia/internal/domain"

// Revalue computes the market valuation of a position from its most recent
// close price. A position that never saw a close price values at zero, which
// leaves the mark-to-market adjustment at minus the cost basis.
func Revalue(pos domain.Position) domain.Valuation {
	marketValue := 0.0
	if pos.MostRecentClosePrice != nil {
		marketValue = domain.ClampValuation(domain.Round2(pos.SignedQuantity * *pos.MostRecentClosePrice))
	}

	return domain.Valuation{
		MarketValue:          marketValue,
		MarkToMarketAdjustment: domain.ClampValuation(domain.Round2(marketValue - pos.CostBasisValue)),
	}
}
