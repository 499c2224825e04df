package positions

import (
	"testing"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDetectNetting(t *testing.T) {
	records := []domain.TransactionRecord{
		buy("2025-06-02", 100, 10.0),
		sell("2025-06-03", 100, 12.0),
	}
	for i := range records {
		records[i].Seq = i
	}
	other := buy("2025-06-02", 50, 20.0)
	other.Instrument = "SQM-B"
	records = append(records, other)

	positions := FoldAll(records)
	netted := DetectNetting(positions)

	assert.Equal(t, []string{"ENEL"}, netted)
}

func TestDetectNettingIgnoresUntraded(t *testing.T) {
	// A zero-quantity position with no contributing records is not netting.
	positions := map[string]domain.Position{
		"GHOST": {Instrument: "GHOST"},
	}
	assert.Empty(t, DetectNetting(positions))
}

func TestDetectNettingSorted(t *testing.T) {
	positions := map[string]domain.Position{
		"SQM-B": {Instrument: "SQM-B", CumulativeBoughtQuantity: 10, CumulativeSoldQuantity: 10},
		"CAP":   {Instrument: "CAP", CumulativeBoughtQuantity: 5, CumulativeSoldQuantity: 5},
		"ENEL":  {Instrument: "ENEL", SignedQuantity: 100, CumulativeBoughtQuantity: 100},
	}

	assert.Equal(t, []string{"CAP", "SQM-B"}, DetectNetting(positions))
}
