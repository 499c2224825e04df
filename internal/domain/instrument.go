package domain

import "strings"

// Markers that identify non-equity rows in confirmation files. Rows whose
// instrument carries one of these are rejected during parsing and never
// reach the position ledger.
var excludedInstrumentMarkers = []string{"CFI", "OSA"}

// NormalizeInstrument canonicalizes an instrument code: uppercase, first
// whitespace-delimited token only, trailing non-alphanumeric characters
// stripped. Returns "" when nothing usable remains.
func NormalizeInstrument(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// First whitespace-delimited token. Confirmation files pad the code
	// column with the instrument's long name.
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}

	// Strip trailing punctuation (e.g. "ENEL*" or "SQM-B.").
	for len(s) > 0 {
		last := s[len(s)-1]
		if (last >= 'A' && last <= 'Z') || (last >= '0' && last <= '9') {
			break
		}
		s = s[:len(s)-1]
	}

	return s
}

// InstrumentExcluded reports whether a normalized instrument code carries one
// of the excluded markers.
func InstrumentExcluded(instrument string) bool {
	for _, marker := range excludedInstrumentMarkers {
		if strings.Contains(instrument, marker) {
			return true
		}
	}
	return false
}
