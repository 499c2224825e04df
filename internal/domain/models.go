// Package domain contains the core types shared across Custodia modules.
// The domain layer is pure: no database, HTTP, or logging dependencies.
package domain

import (
	"strings"
	"time"
)

// Side identifies the direction of a trade confirmation row.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide maps the side markers found in broker confirmation files.
// Chilean confirmations use C (compra) and V (venta).
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B", "C", "COMPRA":
		return SideBuy, true
	case "SELL", "S", "V", "VENTA":
		return SideSell, true
	}
	return "", false
}

// SettlementCondition is the settlement condition code carried on a trade.
// Unrecognized codes settle under the CN rule.
type SettlementCondition string

const (
	// SettlementCN settles on the second business day after the trade date.
	SettlementCN SettlementCondition = "CN"
	// SettlementPM settles on the first business day after the trade date.
	SettlementPM SettlementCondition = "PM"
	// SettlementPH settles same-day when the trade date is a business day.
	SettlementPH SettlementCondition = "PH"
)

// TransactionRecord is one parsed trade-confirmation row.
// Quantity is a non-negative magnitude; the sign lives in Side.
type TransactionRecord struct {
	ID         int64  `json:"id,omitempty"`
	BatchID    string `json:"batch_id,omitempty"`
	Date       Date   `json:"date"`
	Instrument string `json:"instrument"` // normalized, see NormalizeInstrument
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Side       Side    `json:"side"`
	BrokerCode int     `json:"broker_code"`
	BrokerName string  `json:"broker_name"`

	SettlementCondition SettlementCondition `json:"settlement_condition"`
	SettlementDate      *Date               `json:"settlement_date,omitempty"`

	// ClosePrice is the market close price the confirmation row carried,
	// when the upload included one.
	ClosePrice *float64 `json:"close_price,omitempty"`

	// OpeningBalance marks rows from a bulk opening-balance upload. Their
	// ExplicitValuation is trusted verbatim as the cost basis instead of
	// being recomputed from quantity and price.
	OpeningBalance    bool     `json:"opening_balance,omitempty"`
	ExplicitValuation *float64 `json:"explicit_valuation,omitempty"`

	// Seq is the arrival order of the record, used to break same-date
	// ties when folding. Parsers assign the row index within the file;
	// the ledger store replaces it with the global row id on read.
	Seq int `json:"seq,omitempty"`
}

// SignedQuantity returns the record quantity with the side's sign applied.
func (t TransactionRecord) SignedQuantity() float64 {
	if t.Side == SideSell {
		return -t.Quantity
	}
	return t.Quantity
}

// Position classification labels. These are the labels the back-office
// spreadsheet uses, so they are kept in Spanish.
const (
	ClassificationLong  = "Cartera"
	ClassificationShort = "Corto"
)

// Position is the running per-instrument accumulation produced by the fold.
type Position struct {
	Instrument          string   `json:"instrument"`
	SignedQuantity      float64  `json:"signed_quantity"`
	WeightedAverageCost float64  `json:"weighted_average_cost"`
	CostBasisValue      float64  `json:"cost_basis_value"`
	MostRecentClosePrice *float64 `json:"most_recent_close_price,omitempty"`

	CumulativeBoughtValue    float64 `json:"cumulative_bought_value"`
	CumulativeBoughtQuantity float64 `json:"cumulative_bought_quantity"`
	CumulativeSoldValue      float64 `json:"cumulative_sold_value"`
	CumulativeSoldQuantity   float64 `json:"cumulative_sold_quantity"`
}

// Classification returns "Cartera" for long positions and "Corto" for short.
// A flat position reports as long; flat positions are excluded from output
// lists before classification matters.
func (p Position) Classification() string {
	if p.SignedQuantity < 0 {
		return ClassificationShort
	}
	return ClassificationLong
}

// IsFlat reports whether the position netted to exactly zero.
func (p Position) IsFlat() bool { return p.SignedQuantity == 0 }

// Valuation is the market-value view of a position.
type Valuation struct {
	MarketValue          float64 `json:"market_value"`
	MarkToMarketAdjustment float64 `json:"mark_to_market_adjustment"`
}

// ManualAdjustment holds user-supplied overrides for a computed position.
// At most one active adjustment exists per instrument. Nil fields leave the
// computed value untouched.
type ManualAdjustment struct {
	Instrument string   `json:"instrument"`
	Quantity   *float64 `json:"quantity,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	ClosePrice *float64 `json:"close_price,omitempty"`
}

// HolidayMarker is a recurring (month, day) holiday with no year component.
// Fixed-date approximation accepted by design; movable feasts repeat on the
// date they were loaded with.
type HolidayMarker struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DailyFlow is one day of fund-flow statistics scraped from the portal.
type DailyFlow struct {
	Date        Date    `json:"date"`
	Category    string  `json:"category"`
	Deposits    float64 `json:"deposits"`
	Withdrawals float64 `json:"withdrawals"`
	Net         float64 `json:"net"`
}

// MonthlyFlowAccumulation is the running month-to-date sum for a category.
type MonthlyFlowAccumulation struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Category    string  `json:"category"`
	Deposits    float64 `json:"deposits"`
	Withdrawals float64 `json:"withdrawals"`
	Net         float64 `json:"net"`
	LastDate    Date    `json:"last_date"`
}
