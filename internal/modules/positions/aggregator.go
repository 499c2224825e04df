// Package positions maintains the running equities position ledger: folding
// confirmed trades into per-instrument positions, applying manual
// adjustments, and revaluing against the most recent close price.
package positions

import (
	"math"
	"sort"

	"github.com/andeshq/custodia/internal/domain"
)

// Fold applies one transaction record to a position accumulator and returns
// the updated position. A nil position starts a fresh accumulator for the
// record's instrument. Fold is pure: it never mutates its input and keeps no
// state of its own.
//
// Buys blend into the running weighted-average cost regardless of the
// current sign. Sells that leave the position short mark the average cost at
// the sale price that created or extended the short; short positions are not
// cost-averaged.
func Fold(p *domain.Position, rec domain.TransactionRecord) domain.Position {
	var pos domain.Position
	if p != nil {
		pos = *p
	} else {
		pos.Instrument = rec.Instrument
	}

	qty := sanitize(rec.Quantity)
	price := sanitize(rec.Price)

	switch rec.Side {
	case domain.SideSell:
		pos.SignedQuantity -= qty
		pos.CumulativeSoldValue += qty * price
		pos.CumulativeSoldQuantity += qty
		if pos.SignedQuantity < 0 {
			pos.WeightedAverageCost = price
		}
	default:
		pos.SignedQuantity += qty
		pos.CumulativeBoughtValue += qty * price
		pos.CumulativeBoughtQuantity += qty
		if pos.CumulativeBoughtQuantity > 0 {
			pos.WeightedAverageCost = pos.CumulativeBoughtValue / pos.CumulativeBoughtQuantity
		}
	}

	// An opening-balance row with an explicit valuation is the source of
	// truth for the cost basis; recomputing it from quantity and price
	// could disagree with the uploaded figure. The sign is still corrected
	// to track the signed quantity.
	if rec.OpeningBalance && rec.ExplicitValuation != nil {
		pos.CostBasisValue = domain.ClampValuation(domain.CopySign(*rec.ExplicitValuation, pos.SignedQuantity))
	} else {
		pos.CostBasisValue = domain.ClampValuation(domain.Round2(pos.SignedQuantity * pos.WeightedAverageCost))
	}

	if rec.ClosePrice != nil {
		cp := *rec.ClosePrice
		pos.MostRecentClosePrice = &cp
	}

	return pos
}

// FoldAll folds an arbitrary batch of records into per-instrument positions.
// The batch is sorted by (date, arrival order) before folding; callers do
// not have to pre-sort. Instruments that traded to exactly zero remain in
// the result so the netting detector can report them.
func FoldAll(records []domain.TransactionRecord) map[string]domain.Position {
	ordered := SortRecords(records)

	positions := make(map[string]domain.Position)
	for _, rec := range ordered {
		var prev *domain.Position
		if existing, ok := positions[rec.Instrument]; ok {
			prev = &existing
		}
		positions[rec.Instrument] = Fold(prev, rec)
	}
	return positions
}

// SortRecords returns a copy of records ordered by transaction date, with
// same-date ties broken by arrival order. Reordering same-date records would
// change which sale price marks a short and the weighted-average trajectory,
// so the sort is stable on top of the Seq tie-break.
func SortRecords(records []domain.TransactionRecord) []domain.TransactionRecord {
	ordered := make([]domain.TransactionRecord, len(records))
	copy(ordered, records)

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].Seq < ordered[j].Seq
	})
	return ordered
}

// sanitize defends against malformed rows that slipped past upstream
// validation: negative magnitudes and NaN fold as zero so the fold stays
// total.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
