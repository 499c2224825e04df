// Package confirmations ingests brokerage trade-confirmation files, stores
// them in the transaction ledger, and renders the fixed back-office export
// layout.
package confirmations

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andeshq/custodia/internal/domain"
)

// Confirmation file column layout. One fixed layout per upload kind; general
// spreadsheet parsing is out of scope.
//
//	fecha, instrumento, operacion, cantidad, precio, monto,
//	corredor_codigo, corredor_nombre, condicion, precio_cierre
const (
	colDate = iota
	colInstrument
	colSide
	colQuantity
	colPrice
	colAmount
	colBrokerCode
	colBrokerName
	colCondition
	colClosePrice
	confirmationColumns
)

// Opening-balance layout: fecha, instrumento, operacion, cantidad, precio,
// valorizacion. The valorizacion column is trusted verbatim as the cost
// basis.
const openingBalanceColumns = 6

// RowError describes one rejected row of an upload.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ParseResult carries the accepted records and the rejected rows of one
// parsed file.
type ParseResult struct {
	Records  []domain.TransactionRecord
	Rejected []RowError
}

// ParseConfirmations parses a daily trade-confirmation CSV. Rows with an
// empty or excluded instrument, an unknown side, or an unparseable date are
// rejected individually; a rejected row never aborts the file.
func ParseConfirmations(r io.Reader) (*ParseResult, error) {
	return parse(r, confirmationColumns, parseConfirmationRow)
}

// ParseOpeningBalances parses a bulk opening-balance CSV. Every accepted
// record is flagged OpeningBalance with the valorizacion column as its
// explicit valuation.
func ParseOpeningBalances(r io.Reader) (*ParseResult, error) {
	return parse(r, openingBalanceColumns, parseOpeningBalanceRow)
}

func parse(r io.Reader, wantColumns int, parseRow func([]string) (domain.TransactionRecord, error)) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ParseResult{}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum+1, err)
		}
		rowNum++

		// Header row: first row whose date column does not parse as a date.
		if rowNum == 1 && !looksLikeDate(row[colDate]) {
			continue
		}

		if len(row) < wantColumns {
			result.Rejected = append(result.Rejected, RowError{Row: rowNum, Reason: fmt.Sprintf("expected %d columns, got %d", wantColumns, len(row))})
			continue
		}

		rec, err := parseRow(row)
		if err != nil {
			result.Rejected = append(result.Rejected, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		rec.Seq = len(result.Records)
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func parseConfirmationRow(row []string) (domain.TransactionRecord, error) {
	rec, err := parseCommonFields(row)
	if err != nil {
		return rec, err
	}

	rec.BrokerCode = int(parseNumber(row[colBrokerCode]))
	rec.BrokerName = strings.TrimSpace(row[colBrokerName])

	condition := domain.SettlementCondition(strings.ToUpper(strings.TrimSpace(row[colCondition])))
	if condition == "" {
		condition = domain.SettlementCN
	}
	rec.SettlementCondition = condition

	if cp := strings.TrimSpace(row[colClosePrice]); cp != "" {
		v := parseNumber(cp)
		rec.ClosePrice = &v
	}

	// Price may be implied: some confirmation files carry only the total
	// amount.
	if rec.Price == 0 && rec.Quantity > 0 {
		if amount := parseNumber(row[colAmount]); amount > 0 {
			rec.Price = amount / rec.Quantity
		}
	}

	return rec, nil
}

func parseOpeningBalanceRow(row []string) (domain.TransactionRecord, error) {
	rec, err := parseCommonFields(row)
	if err != nil {
		return rec, err
	}

	rec.SettlementCondition = domain.SettlementCN
	rec.OpeningBalance = true
	valuation := parseNumber(row[colAmount]) // valorizacion column
	rec.ExplicitValuation = &valuation

	return rec, nil
}

// parseCommonFields handles the columns both layouts share: date,
// instrument, side, quantity, price.
func parseCommonFields(row []string) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord

	date, err := domain.ParseDate(strings.TrimSpace(row[colDate]))
	if err != nil {
		return rec, fmt.Errorf("bad date %q", row[colDate])
	}
	rec.Date = date

	instrument := domain.NormalizeInstrument(row[colInstrument])
	if instrument == "" {
		return rec, fmt.Errorf("empty instrument")
	}
	if domain.InstrumentExcluded(instrument) {
		return rec, fmt.Errorf("excluded instrument %q", instrument)
	}
	rec.Instrument = instrument

	side, ok := domain.ParseSide(row[colSide])
	if !ok {
		return rec, fmt.Errorf("unknown side %q", row[colSide])
	}
	rec.Side = side

	rec.Quantity = parseNumber(row[colQuantity])
	rec.Price = parseNumber(row[colPrice])

	return rec, nil
}

// parseNumber parses a numeric cell, tolerating thousand separators and the
// comma decimal marker used in Chilean files. Unparseable cells yield zero;
// the fold treats zeroes as neutral rather than failing.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// "1.234.567,89" -> "1234567.89"; "1,234,567.89" -> "1234567.89".
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	} else if strings.Contains(s, ",") {
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func looksLikeDate(s string) bool {
	_, err := domain.ParseDate(strings.TrimSpace(s))
	return err == nil
}
