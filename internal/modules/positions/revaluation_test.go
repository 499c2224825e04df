package positions

import (
	"testing"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRevalue(t *testing.T) {
	close := 12.50
	pos := domain.Position{
		Instrument:           "ENEL",
		SignedQuantity:       100,
		CostBasisValue:       1000,
		MostRecentClosePrice: &close,
	}

	v := Revalue(pos)
	assert.Equal(t, 1250.0, v.MarketValue)
	assert.Equal(t, 250.0, v.MarkToMarketAdjustment)
}

func TestRevalueShort(t *testing.T) {
	close := 12.50
	pos := domain.Position{
		Instrument:           "ENEL",
		SignedQuantity:       -100,
		CostBasisValue:       -1500,
		MostRecentClosePrice: &close,
	}

	v := Revalue(pos)
	assert.Equal(t, -1250.0, v.MarketValue)
	assert.Equal(t, 250.0, v.MarkToMarketAdjustment)
}

func TestRevalueWithoutClosePrice(t *testing.T) {
	pos := domain.Position{
		Instrument:     "ENEL",
		SignedQuantity: 100,
		CostBasisValue: 1000,
	}

	v := Revalue(pos)
	assert.Equal(t, 0.0, v.MarketValue)
	assert.Equal(t, -1000.0, v.MarkToMarketAdjustment)
}
