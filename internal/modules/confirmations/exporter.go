package confirmations

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/andeshq/custodia/internal/domain"
)

// backOfficeHeader is the fixed column order the back-office loader expects.
// Column names and order are part of the contract with the downstream
// system; do not reorder.
var backOfficeHeader = []string{
	"fecha_operacion",
	"fecha_pago",
	"codigo_corredor",
	"nombre_corredor",
	"instrumento",
	"operacion",
	"cantidad",
	"precio",
	"monto",
	"condicion",
}

// WriteBackOffice renders records in the back-office layout. Records must
// already carry their settlement dates; a record without one is an error
// because the downstream loader rejects files with empty fecha_pago cells.
func WriteBackOffice(w io.Writer, records []domain.TransactionRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(backOfficeHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		if rec.SettlementDate == nil {
			return fmt.Errorf("record %s %s has no settlement date", rec.Date, rec.Instrument)
		}

		amount := domain.Round2(rec.Quantity * rec.Price)
		row := []string{
			rec.Date.String(),
			rec.SettlementDate.String(),
			strconv.Itoa(rec.BrokerCode),
			rec.BrokerName,
			rec.Instrument,
			string(rec.Side),
			formatNumber(rec.Quantity),
			formatNumber(rec.Price),
			formatNumber(amount),
			string(rec.SettlementCondition),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatNumber trims trailing zeroes so whole quantities export as integers.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
