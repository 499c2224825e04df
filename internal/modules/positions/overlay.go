package positions

import "github.com/andeshq/custodia/internal/domain"

// ApplyAdjustment overlays a manual adjustment on a computed position and
// returns the adjusted position. Present fields replace the computed value;
// absent fields pass through.
//
// Overriding quantity or cost forces the cost basis to be recomputed as
// quantity times average cost. The valuation is always derived, never
// caller-supplied: an adjustment cannot set the cost basis directly.
// Overriding the close price touches nothing else.
func ApplyAdjustment(pos domain.Position, adj domain.ManualAdjustment) domain.Position {
	recompute := false

	if adj.Quantity != nil {
		pos.SignedQuantity = *adj.Quantity
		recompute = true
	}
	if adj.Cost != nil {
		pos.WeightedAverageCost = *adj.Cost
		recompute = true
	}
	if recompute {
		pos.CostBasisValue = domain.ClampValuation(domain.Round2(pos.SignedQuantity * pos.WeightedAverageCost))
	}

	if adj.ClosePrice != nil {
		cp := *adj.ClosePrice
		pos.MostRecentClosePrice = &cp
	}

	return pos
}
