package etl

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/salescope/salescope/internal/model"
)

// ReadExcel loads the first sheet of an Excel workbook as a raw table.
// The first row is treated as the header.
func ReadExcel(path string) (RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return RawTable{}, fmt.Errorf("%w: workbook has no sheets", model.ErrIngestion)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to read excel rows: %w", err)
	}
	if len(rows) == 0 {
		return RawTable{}, fmt.Errorf("%w: empty excel sheet", model.ErrIngestion)
	}

	return RawTable{Columns: rows[0], Rows: rows[1:]}, nil
}
