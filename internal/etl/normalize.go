// Package etl normalizes uploaded sales reports into canonical fact rows.
package etl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/salescope/salescope/internal/model"
)

// RawTable is a parsed tabular batch before normalization. Cells hold
// raw text in column order; short rows are padded with empty cells.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// dateFormats lists the accepted date layouts, most common first.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
}

// Normalizer converts raw tabular batches into the canonical fact schema.
type Normalizer struct {
	defaultCurrency string
}

// NewNormalizer creates a normalizer that fills absent currency values
// with the given default.
func NewNormalizer(defaultCurrency string) *Normalizer {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &Normalizer{defaultCurrency: defaultCurrency}
}

// Normalize validates a raw batch and maps it onto the canonical fact
// schema. The whole batch is rejected when a required column is missing
// or any row carries an unparsable date or numeric value. Rows where
// sales_amount is absent or zero get it recomputed as quantity * unit_price.
func (n *Normalizer) Normalize(table RawTable, sourceFile, ingestionID string) ([]model.FactRow, error) {
	index := make(map[string]int, len(table.Columns))
	for i, col := range table.Columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range model.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required columns: %s", model.ErrIngestion, strings.Join(missing, ", "))
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]model.FactRow, 0, len(table.Rows))
	for i, raw := range table.Rows {
		rowNum := i + 1

		date, err := parseDate(cell(raw, "date"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", model.ErrIngestion, rowNum, err)
		}

		quantity, err := parseNumber(cell(raw, "quantity"), "quantity")
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", model.ErrIngestion, rowNum, err)
		}

		unitPrice, err := parseNumber(cell(raw, "unit_price"), "unit_price")
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", model.ErrIngestion, rowNum, err)
		}

		var salesAmount float64
		if rawAmount := cell(raw, "sales_amount"); rawAmount != "" {
			salesAmount, err = strconv.ParseFloat(rawAmount, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: non-numeric value %q in sales_amount column", model.ErrIngestion, rowNum, rawAmount)
			}
		}
		if salesAmount == 0 {
			salesAmount = quantity * unitPrice
		}

		currency := cell(raw, "currency")
		if currency == "" {
			currency = n.defaultCurrency
		}

		rows = append(rows, model.FactRow{
			Date:        date,
			OrderID:     cell(raw, "order_id"),
			Product:     cell(raw, "product"),
			Category:    cell(raw, "category"),
			Region:      cell(raw, "region"),
			Customer:    optionalString(cell(raw, "customer")),
			Salesperson: optionalString(cell(raw, "salesperson")),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			SalesAmount: salesAmount,
			Currency:    currency,
			SourceFile:  sourceFile,
			IngestionID: ingestionID,
		})
	}

	return rows, nil
}

// parseDate probes the known date layouts and truncates to midnight UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid date value %q", s)
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date value %q", s)
}

func parseNumber(s, column string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("non-numeric value in %s column", column)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric value %q in %s column", s, column)
	}
	return v, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
