package positions

import (
	"testing"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func computedPosition() domain.Position {
	close := 11.0
	return domain.Position{
		Instrument:           "ENEL",
		SignedQuantity:       100,
		WeightedAverageCost:  10.0,
		CostBasisValue:       1000.0,
		MostRecentClosePrice: &close,
	}
}

func TestApplyAdjustmentQuantity(t *testing.T) {
	qty := 120.0
	adjusted := ApplyAdjustment(computedPosition(), domain.ManualAdjustment{
		Instrument: "ENEL",
		Quantity:   &qty,
	})

	assert.Equal(t, 120.0, adjusted.SignedQuantity)
	assert.Equal(t, 10.0, adjusted.WeightedAverageCost)
	// Cost basis is recomputed, never carried over.
	assert.Equal(t, 1200.0, adjusted.CostBasisValue)
}

func TestApplyAdjustmentCost(t *testing.T) {
	cost := 9.5
	adjusted := ApplyAdjustment(computedPosition(), domain.ManualAdjustment{
		Instrument: "ENEL",
		Cost:       &cost,
	})

	assert.Equal(t, 9.5, adjusted.WeightedAverageCost)
	assert.Equal(t, 950.0, adjusted.CostBasisValue)
}

func TestApplyAdjustmentClosePriceOnly(t *testing.T) {
	close := 15.0
	adjusted := ApplyAdjustment(computedPosition(), domain.ManualAdjustment{
		Instrument: "ENEL",
		ClosePrice: &close,
	})

	require.NotNil(t, adjusted.MostRecentClosePrice)
	assert.Equal(t, 15.0, *adjusted.MostRecentClosePrice)
	// No cascading recompute of cost fields.
	assert.Equal(t, 1000.0, adjusted.CostBasisValue)
	assert.Equal(t, 10.0, adjusted.WeightedAverageCost)
}

func TestApplyAdjustmentEmptyIsIdentity(t *testing.T) {
	original := computedPosition()
	adjusted := ApplyAdjustment(original, domain.ManualAdjustment{Instrument: "ENEL"})
	assert.Equal(t, original, adjusted)
}
