package positions

import (
	"sort"

	"github.com/andeshq/custodia/internal/domain"
)

// DetectNetting returns the instruments whose position netted to exactly
// zero after a batch, in alphabetical order. Only instruments that actually
// traded qualify; an instrument with no buy or sell contribution is simply
// absent, not netted.
//
// The report is informational. Callers exclude flat positions from displayed
// and exported lists but surface this list as a warning so netted
// instruments are never silently dropped.
func DetectNetting(positions map[string]domain.Position) []string {
	var netted []string
	for instrument, pos := range positions {
		if !pos.IsFlat() {
			continue
		}
		if pos.CumulativeBoughtQuantity == 0 && pos.CumulativeSoldQuantity == 0 {
			continue
		}
		netted = append(netted, instrument)
	}

	sort.Strings(netted)
	return netted
}
