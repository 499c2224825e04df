package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeInstrument(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain code", "enel", "ENEL"},
		{"padded with name", "SQM-B  SOC QUIMICA Y MINERA", "SQM-B"},
		{"trailing punctuation", "FALABELLA*", "FALABELLA"},
		{"trailing dot", "CENCOSUD.", "CENCOSUD"},
		{"whitespace only", "   ", ""},
		{"empty", "", ""},
		{"only punctuation", "***", ""},
		{"keeps inner dash", "SQM-B", "SQM-B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInstrument(tt.raw))
		})
	}
}

func TestInstrumentExcluded(t *testing.T) {
	assert.True(t, InstrumentExcluded("CFIENEL"))
	assert.True(t, InstrumentExcluded("OSA"))
	assert.False(t, InstrumentExcluded("ENEL"))
	assert.False(t, InstrumentExcluded(""))
}

func TestParseSide(t *testing.T) {
	for _, raw := range []string{"C", "compra", "BUY", "b"} {
		side, ok := ParseSide(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, SideBuy, side, raw)
	}
	for _, raw := range []string{"V", "venta", "SELL", "s"} {
		side, ok := ParseSide(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, SideSell, side, raw)
	}
	_, ok := ParseSide("X")
	assert.False(t, ok)
}

func TestClampValuation(t *testing.T) {
	assert.Equal(t, 1234.5, ClampValuation(1234.5))
	assert.Equal(t, ValuationBound, ClampValuation(2e15))
	assert.Equal(t, -ValuationBound, ClampValuation(-2e15))
	assert.Equal(t, 0.0, ClampValuation(nan()))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 11.0, Round2(1650.0/150.0))
	assert.Equal(t, 0.13, Round2(0.125)) // round half away from zero
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
