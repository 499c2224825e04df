package domain

import "math"

// ValuationBound caps the magnitude of any stored monetary value. Values
// beyond it are clamped rather than rejected so downstream storage never
// refuses a row.
const ValuationBound = 1e15

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampValuation limits v to ±ValuationBound, preserving sign. NaN collapses
// to zero.
func ClampValuation(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > ValuationBound {
		return ValuationBound
	}
	if v < -ValuationBound {
		return -ValuationBound
	}
	return v
}

// CopySign returns the magnitude of v carrying the sign of sign. A zero sign
// yields a positive result.
func CopySign(v, sign float64) float64 {
	if sign < 0 {
		return -math.Abs(v)
	}
	return math.Abs(v)
}
