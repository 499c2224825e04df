// Package settlement computes trade settlement dates from settlement
// condition codes and a business-day calendar.
package settlement

import (
	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/calendar"
)

// Calculator computes settlement dates against one holiday calendar. The
// calendar is injected at construction; there is no lazy holiday fetching
// inside the calculator.
type Calculator struct {
	cal *calendar.Calendar
}

// New creates a calculator over the given calendar.
func New(cal *calendar.Calendar) *Calculator {
	return &Calculator{cal: cal}
}

// ComputeSettlementDate returns the settlement date for a trade date under
// the given condition code. Unrecognized codes settle under the CN rule.
//
// The walk always terminates: business days recur at least weekly. A trade
// date that itself falls on a weekend or holiday is processed mechanically,
// with no input validation; that is the contractual behavior.
func (c *Calculator) ComputeSettlementDate(tradeDate domain.Date, condition domain.SettlementCondition) domain.Date {
	switch condition {
	case domain.SettlementPM:
		return c.nextBusinessDay(tradeDate)
	case domain.SettlementPH:
		if c.cal.IsBusinessDay(tradeDate) {
			return tradeDate
		}
		return c.nextBusinessDay(tradeDate)
	default:
		// CN and anything unrecognized: two independent advance-then-skip
		// passes. This is NOT "skip two business days from tomorrow" - the
		// two formulations differ around holiday clusters, and the
		// two-pass form is the contractual rule.
		first := c.nextBusinessDay(tradeDate)
		return c.nextBusinessDay(first)
	}
}

// Annotate fills in the settlement date on each record in place, using each
// record's own condition code.
func (c *Calculator) Annotate(records []domain.TransactionRecord) {
	for i := range records {
		d := c.ComputeSettlementDate(records[i].Date, records[i].SettlementCondition)
		records[i].SettlementDate = &d
	}
}

// nextBusinessDay advances one calendar day, then keeps advancing while the
// day is not a business day.
func (c *Calculator) nextBusinessDay(d domain.Date) domain.Date {
	d = d.AddDays(1)
	for !c.cal.IsBusinessDay(d) {
		d = d.AddDays(1)
	}
	return d
}
