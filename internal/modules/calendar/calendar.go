// Package calendar answers business-day queries against a country's
// recurring holiday set.
package calendar

import (
	"time"

	"github.com/andeshq/custodia/internal/domain"
)

// HolidaySet is a set of recurring (month, day) holiday markers. It carries
// no year component: every holiday repeats annually on the same date. The
// set is a value; build it once per batch and pass it in, there is no shared
// fetch-once state.
type HolidaySet map[domain.HolidayMarker]struct{}

// NewHolidaySet builds a set from a list of markers.
func NewHolidaySet(markers []domain.HolidayMarker) HolidaySet {
	set := make(HolidaySet, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	return set
}

// Markers returns the set's markers ordered by (month, day).
func (s HolidaySet) Markers() []domain.HolidayMarker {
	markers := make([]domain.HolidayMarker, 0, len(s))
	for m := range s {
		markers = append(markers, m)
	}
	sortMarkers(markers)
	return markers
}

func sortMarkers(markers []domain.HolidayMarker) {
	for i := 1; i < len(markers); i++ {
		for j := i; j > 0; j-- {
			a, b := markers[j-1], markers[j]
			if a.Month < b.Month || (a.Month == b.Month && a.Day <= b.Day) {
				break
			}
			markers[j-1], markers[j] = b, a
		}
	}
}

// Calendar answers holiday and business-day queries for one holiday set.
type Calendar struct {
	holidays HolidaySet
}

// New creates a calendar over the given holiday set. A nil set yields a
// weekends-only calendar.
func New(holidays HolidaySet) *Calendar {
	return &Calendar{holidays: holidays}
}

// IsHoliday reports whether the date's (month, day) pair is a holiday,
// regardless of year.
func (c *Calendar) IsHoliday(d domain.Date) bool {
	_, ok := c.holidays[domain.HolidayMarker{Month: d.Month(), Day: d.Day()}]
	return ok
}

// IsBusinessDay reports whether the date is a weekday and not a holiday.
func (c *Calendar) IsBusinessDay(d domain.Date) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(d)
}
