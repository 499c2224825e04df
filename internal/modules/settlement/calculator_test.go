package settlement

import (
	"testing"
	"time"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/andeshq/custodia/internal/modules/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyCalendar() *calendar.Calendar {
	return calendar.New(nil)
}

func calendarWith(markers ...domain.HolidayMarker) *calendar.Calendar {
	return calendar.New(calendar.NewHolidaySet(markers))
}

func TestComputeSettlementDateCN(t *testing.T) {
	tests := []struct {
		name      string
		calendar  *calendar.Calendar
		tradeDate string
		want      string
	}{
		{
			// Fri 6/13 -> Mon 6/16 (1st pass) -> Tue 6/17 (2nd pass).
			name:      "friday over a weekend",
			calendar:  emptyCalendar(),
			tradeDate: "2025-06-13",
			want:      "2025-06-17",
		},
		{
			name:      "midweek",
			calendar:  emptyCalendar(),
			tradeDate: "2025-06-10", // Tuesday
			want:      "2025-06-12", // Thursday
		},
		{
			// Mon 6/16 is a holiday: Fri 6/13 -> Tue 6/17 -> Wed 6/18.
			name:      "holiday after weekend",
			calendar:  calendarWith(domain.HolidayMarker{Month: time.June, Day: 16}),
			tradeDate: "2025-06-13",
			want:      "2025-06-18",
		},
		{
			// Weekend trade date is walked mechanically, no input guard.
			name:      "saturday trade date",
			calendar:  emptyCalendar(),
			tradeDate: "2025-06-14",
			want:      "2025-06-17", // Mon 6/16, then Tue 6/17
		},
		{
			name:      "month boundary",
			calendar:  emptyCalendar(),
			tradeDate: "2025-06-27", // Friday
			want:      "2025-07-01",
		},
		{
			// Holiday cluster: Thu 9/18 and Fri 9/19 are holidays.
			// Wed 9/17 -> Mon 9/22 -> Tue 9/23.
			name:      "fiestas patrias cluster",
			calendar:  calendarWith(domain.HolidayMarker{Month: time.September, Day: 18}, domain.HolidayMarker{Month: time.September, Day: 19}),
			tradeDate: "2025-09-17",
			want:      "2025-09-23",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := New(tt.calendar)
			got := calc.ComputeSettlementDate(domain.MustParseDate(tt.tradeDate), domain.SettlementCN)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestComputeSettlementDatePM(t *testing.T) {
	calc := New(calendarWith(domain.HolidayMarker{Month: time.June, Day: 16}))

	// Fri 6/13: Mon 6/16 is a holiday, settle Tue 6/17.
	got := calc.ComputeSettlementDate(domain.MustParseDate("2025-06-13"), domain.SettlementPM)
	assert.Equal(t, "2025-06-17", got.String())

	// Midweek: settle next day.
	got = calc.ComputeSettlementDate(domain.MustParseDate("2025-06-10"), domain.SettlementPM)
	assert.Equal(t, "2025-06-11", got.String())
}

func TestComputeSettlementDatePH(t *testing.T) {
	calc := New(emptyCalendar())

	// Business trade date settles same day.
	got := calc.ComputeSettlementDate(domain.MustParseDate("2025-06-13"), domain.SettlementPH)
	assert.Equal(t, "2025-06-13", got.String())

	// Non-business trade date falls back to the PM rule.
	got = calc.ComputeSettlementDate(domain.MustParseDate("2025-06-14"), domain.SettlementPH)
	assert.Equal(t, "2025-06-16", got.String())
}

func TestUnrecognizedConditionUsesCN(t *testing.T) {
	calc := New(emptyCalendar())

	cn := calc.ComputeSettlementDate(domain.MustParseDate("2025-06-13"), domain.SettlementCN)
	other := calc.ComputeSettlementDate(domain.MustParseDate("2025-06-13"), domain.SettlementCondition("XX"))
	assert.Equal(t, cn, other)

	empty := calc.ComputeSettlementDate(domain.MustParseDate("2025-06-13"), "")
	assert.Equal(t, cn, empty)
}

// CN settlement is always a business day at least two calendar days out;
// PM settlement is always a business day strictly after the trade date.
func TestSettlementProperties(t *testing.T) {
	cal := calendarWith(
		domain.HolidayMarker{Month: time.June, Day: 16},
		domain.HolidayMarker{Month: time.June, Day: 29},
		domain.HolidayMarker{Month: time.July, Day: 16},
	)
	calc := New(cal)

	start := domain.MustParseDate("2025-06-01")
	for i := 0; i < 60; i++ {
		d := start.AddDays(i)

		cn := calc.ComputeSettlementDate(d, domain.SettlementCN)
		assert.True(t, cal.IsBusinessDay(cn), "CN settlement %s must be a business day", cn)
		assert.GreaterOrEqual(t, cn.DaysSince(d), 2, "CN settlement %s too close to %s", cn, d)

		pm := calc.ComputeSettlementDate(d, domain.SettlementPM)
		assert.True(t, cal.IsBusinessDay(pm), "PM settlement %s must be a business day", pm)
		assert.True(t, pm.After(d), "PM settlement %s must be strictly after %s", pm, d)

		ph := calc.ComputeSettlementDate(d, domain.SettlementPH)
		if cal.IsBusinessDay(d) {
			assert.Equal(t, d, ph)
		} else {
			assert.Equal(t, pm, ph)
		}
	}
}

func TestAnnotate(t *testing.T) {
	calc := New(emptyCalendar())

	records := []domain.TransactionRecord{
		{Date: domain.MustParseDate("2025-06-13"), SettlementCondition: domain.SettlementCN},
		{Date: domain.MustParseDate("2025-06-13"), SettlementCondition: domain.SettlementPH},
	}
	calc.Annotate(records)

	require.NotNil(t, records[0].SettlementDate)
	assert.Equal(t, "2025-06-17", records[0].SettlementDate.String())
	require.NotNil(t, records[1].SettlementDate)
	assert.Equal(t, "2025-06-13", records[1].SettlementDate.String())
}
