package positions

import (
	"testing"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buy(date string, qty, price float64) domain.TransactionRecord {
	return domain.TransactionRecord{
		Date:       domain.MustParseDate(date),
		Instrument: "ENEL",
		Quantity:   qty,
		Price:      price,
		Side:       domain.SideBuy,
	}
}

func sell(date string, qty, price float64) domain.TransactionRecord {
	rec := buy(date, qty, price)
	rec.Side = domain.SideSell
	return rec
}

func TestFoldWeightedAverageCost(t *testing.T) {
	// Buy 100 @ 10.00 then Buy 50 @ 13.00 -> avg (1000+650)/150 = 11.00.
	pos := Fold(nil, buy("2025-06-02", 100, 10.00))
	pos = Fold(&pos, buy("2025-06-03", 50, 13.00))

	assert.Equal(t, 150.0, pos.SignedQuantity)
	assert.Equal(t, 11.0, pos.WeightedAverageCost)
	assert.Equal(t, 1650.0, pos.CostBasisValue)
	assert.Equal(t, domain.ClassificationLong, pos.Classification())
	assert.Equal(t, 1650.0, pos.CumulativeBoughtValue)
	assert.Equal(t, 150.0, pos.CumulativeBoughtQuantity)
}

func TestFoldBuyOnlyAverageProperty(t *testing.T) {
	buys := []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.50),
		buy("2025-06-03", 37, 12.25),
		buy("2025-06-04", 263, 9.80),
		buy("2025-06-05", 1, 100.00),
	}

	var pos domain.Position
	totalValue, totalQty := 0.0, 0.0
	for i, rec := range buys {
		if i == 0 {
			pos = Fold(nil, rec)
		} else {
			pos = Fold(&pos, rec)
		}
		totalValue += rec.Quantity * rec.Price
		totalQty += rec.Quantity
	}

	assert.InDelta(t, totalValue/totalQty, pos.WeightedAverageCost, 1e-9)
	assert.Equal(t, totalQty, pos.SignedQuantity)
}

func TestFoldShortPosition(t *testing.T) {
	// Selling with no prior position opens a short marked at the sale price.
	pos := Fold(nil, sell("2025-06-02", 200, 15.50))

	assert.Equal(t, -200.0, pos.SignedQuantity)
	assert.Equal(t, domain.ClassificationShort, pos.Classification())
	assert.Equal(t, 15.50, pos.WeightedAverageCost)
	assert.Equal(t, -3100.0, pos.CostBasisValue)
	assert.Equal(t, 3100.0, pos.CumulativeSoldValue)
}

func TestFoldShortExtension(t *testing.T) {
	// Extending a short re-marks at the newest sale price, not an average.
	pos := Fold(nil, sell("2025-06-02", 100, 15.00))
	pos = Fold(&pos, sell("2025-06-03", 50, 18.00))

	assert.Equal(t, -150.0, pos.SignedQuantity)
	assert.Equal(t, 18.0, pos.WeightedAverageCost)
	assert.Equal(t, -2700.0, pos.CostBasisValue)
}

func TestFoldBuyToFlat(t *testing.T) {
	pos := Fold(nil, buy("2025-06-02", 100, 10.00))
	pos = Fold(&pos, sell("2025-06-03", 100, 12.00))

	assert.Equal(t, 0.0, pos.SignedQuantity)
	assert.True(t, pos.IsFlat())
	// Cumulative totals survive flattening.
	assert.Equal(t, 100.0, pos.CumulativeBoughtQuantity)
	assert.Equal(t, 100.0, pos.CumulativeSoldQuantity)
}

func TestFoldSellWithinLongKeepsAverage(t *testing.T) {
	// A partial sell that keeps the position long does not touch the
	// weighted average.
	pos := Fold(nil, buy("2025-06-02", 100, 10.00))
	pos = Fold(&pos, sell("2025-06-03", 40, 14.00))

	assert.Equal(t, 60.0, pos.SignedQuantity)
	assert.Equal(t, 10.0, pos.WeightedAverageCost)
	assert.Equal(t, 600.0, pos.CostBasisValue)
}

func TestFoldBuysBlendAcrossShort(t *testing.T) {
	// Buying while short still blends into the cumulative purchase average.
	pos := Fold(nil, sell("2025-06-02", 100, 20.00))
	pos = Fold(&pos, buy("2025-06-03", 40, 10.00))

	assert.Equal(t, -60.0, pos.SignedQuantity)
	// Still short, but the buy recomputed the purchase average.
	assert.Equal(t, 10.0, pos.WeightedAverageCost)
}

func TestFoldOpeningBalanceValuation(t *testing.T) {
	valuation := 123456.78
	rec := buy("2025-01-02", 1000, 123.46)
	rec.OpeningBalance = true
	rec.ExplicitValuation = &valuation

	pos := Fold(nil, rec)
	// The uploaded figure wins over quantity*price (which would be 123460).
	assert.Equal(t, 123456.78, pos.CostBasisValue)

	// Sign correction on a short opening balance.
	rec2 := sell("2025-01-02", 500, 10.0)
	rec2.OpeningBalance = true
	rec2.ExplicitValuation = &valuation
	pos2 := Fold(nil, rec2)
	assert.Equal(t, -123456.78, pos2.CostBasisValue)
}

func TestFoldClosePriceCarryForward(t *testing.T) {
	cp1, cp2 := 11.5, 12.5

	rec1 := buy("2025-06-02", 100, 10.00)
	rec1.ClosePrice = &cp1
	rec2 := buy("2025-06-03", 100, 10.00)
	rec3 := buy("2025-06-04", 100, 10.00)
	rec3.ClosePrice = &cp2

	pos := Fold(nil, rec1)
	require.NotNil(t, pos.MostRecentClosePrice)
	assert.Equal(t, 11.5, *pos.MostRecentClosePrice)

	// A record without a close price keeps the last one seen.
	pos = Fold(&pos, rec2)
	require.NotNil(t, pos.MostRecentClosePrice)
	assert.Equal(t, 11.5, *pos.MostRecentClosePrice)

	pos = Fold(&pos, rec3)
	assert.Equal(t, 12.5, *pos.MostRecentClosePrice)
}

func TestFoldClampsValuation(t *testing.T) {
	pos := Fold(nil, buy("2025-06-02", 1e9, 1e9))
	assert.Equal(t, domain.ValuationBound, pos.CostBasisValue)

	pos2 := Fold(nil, sell("2025-06-02", 1e9, 1e9))
	assert.Equal(t, -domain.ValuationBound, pos2.CostBasisValue)
}

func TestFoldMalformedRecordIsNeutral(t *testing.T) {
	// Negative and NaN magnitudes fold as zero instead of corrupting the
	// accumulator.
	rec := buy("2025-06-02", -50, 10.00)
	pos := Fold(nil, rec)
	assert.Equal(t, 0.0, pos.SignedQuantity)
	assert.Equal(t, 0.0, pos.CumulativeBoughtQuantity)
}

func TestFoldAllSortsBeforeFolding(t *testing.T) {
	// Records arrive out of order; the fold must re-order them. The sale
	// on 6/03 flips the position short, so the short marker price must be
	// the 6/03 sale price even though the record arrives first.
	records := []domain.TransactionRecord{
		{Date: domain.MustParseDate("2025-06-03"), Instrument: "ENEL", Quantity: 150, Price: 14.0, Side: domain.SideSell, Seq: 0},
		{Date: domain.MustParseDate("2025-06-02"), Instrument: "ENEL", Quantity: 100, Price: 10.0, Side: domain.SideBuy, Seq: 1},
	}

	positions := FoldAll(records)
	pos := positions["ENEL"]

	assert.Equal(t, -50.0, pos.SignedQuantity)
	assert.Equal(t, 14.0, pos.WeightedAverageCost)
}

func TestFoldAllSameDateTieBreakBySeq(t *testing.T) {
	records := []domain.TransactionRecord{
		{Date: domain.MustParseDate("2025-06-02"), Instrument: "ENEL", Quantity: 150, Price: 20.0, Side: domain.SideSell, Seq: 5},
		{Date: domain.MustParseDate("2025-06-02"), Instrument: "ENEL", Quantity: 100, Price: 10.0, Side: domain.SideBuy, Seq: 2},
	}

	pos := FoldAll(records)["ENEL"]
	// Buy folds first (lower Seq), then the sell flips short at 20.00.
	assert.Equal(t, -50.0, pos.SignedQuantity)
	assert.Equal(t, 20.0, pos.WeightedAverageCost)
}

func TestFoldAllDeterministic(t *testing.T) {
	records := []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.0),
		sell("2025-06-03", 30, 12.0),
		buy("2025-06-04", 20, 11.0),
		sell("2025-06-05", 90, 13.0),
	}
	for i := range records {
		records[i].Seq = i
	}

	first := FoldAll(records)
	second := FoldAll(records)
	assert.Equal(t, first, second)
}

func TestFoldSignedQuantityExactSum(t *testing.T) {
	records := []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.0),
		sell("2025-06-03", 250, 12.0),
		buy("2025-06-04", 150, 11.0),
	}
	for i := range records {
		records[i].Seq = i
	}

	pos := FoldAll(records)["ENEL"]
	assert.Equal(t, 0.0, pos.SignedQuantity) // 100 - 250 + 150, no clamping
}
