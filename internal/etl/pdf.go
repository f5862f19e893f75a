package etl

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/salescope/salescope/internal/model"
)

// maxPassageLength caps a single PDF context passage.
const maxPassageLength = 300

// pdfColumns is the fixed schema produced by the PDF line extractor.
var pdfColumns = []string{
	"date", "order_id", "product", "category", "region",
	"quantity", "unit_price", "sales_amount",
}

// ReadPDF extracts tabular rows from a PDF document. Each text line is
// tokenized as CSV first, falling back to whitespace splitting; lines
// yielding fewer than six tokens are skipped rather than rejected
// since PDF text extraction is lossy.
func ReadPDF(path string) (RawTable, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to open pdf file: %w", err)
	}
	defer f.Close()

	var rows [][]string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			return RawTable{}, fmt.Errorf("failed to extract pdf text: %w", err)
		}
		for _, line := range lines {
			parts := tokenizeLine(line)
			if len(parts) < 6 {
				continue
			}
			row := make([]string, len(pdfColumns))
			copy(row, parts[:6])
			row[6] = "0"
			row[7] = "0"
			if len(parts) > 6 {
				row[6] = parts[6]
			}
			if len(parts) > 7 {
				row[7] = parts[7]
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return RawTable{}, fmt.Errorf("%w: no tabular rows found in pdf", model.ErrIngestion)
	}
	return RawTable{Columns: pdfColumns, Rows: rows}, nil
}

// ExtractPassages pulls short text passages from a PDF for prompt
// context. Lines are whitespace-collapsed and truncated.
func ExtractPassages(path string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf file: %w", err)
	}
	defer f.Close()

	passages := make([]string, 0, limit)
	for pageIndex := 1; pageIndex <= r.NumPage() && len(passages) < limit; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			return nil, fmt.Errorf("failed to extract pdf text: %w", err)
		}
		for _, line := range lines {
			clean := strings.Join(strings.Fields(line), " ")
			if clean == "" {
				continue
			}
			if len(clean) > maxPassageLength {
				clean = clean[:maxPassageLength]
			}
			passages = append(passages, clean)
			if len(passages) >= limit {
				break
			}
		}
	}
	return passages, nil
}

// pageLines joins the positioned text fragments of a page into lines.
func pageLines(page pdf.Page) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, word := range row.Content {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(word.S)
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}

// tokenizeLine splits a text line into fields, preferring CSV quoting
// rules and falling back to whitespace separation.
func tokenizeLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err == nil {
		parts := make([]string, 0, len(record))
		for _, p := range record {
			parts = append(parts, strings.TrimSpace(p))
		}
		if len(parts) >= 6 {
			return parts
		}
	}
	return strings.Fields(line)
}
