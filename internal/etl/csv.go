package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/salescope/salescope/internal/model"
)

// csvChunkSize bounds how many data rows are normalized and inserted
// per batch when streaming large CSV files.
const csvChunkSize = 5000

// ReadCSVChunks streams a CSV file in fixed-size row chunks, invoking
// fn once per chunk. fn runs at least once even for a header-only file
// so column validation always happens.
func ReadCSVChunks(path string, chunkSize int, fn func(RawTable) error) error {
	if chunkSize <= 0 {
		chunkSize = csvChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty csv file", model.ErrIngestion)
		}
		return fmt.Errorf("failed to read csv header: %w", err)
	}

	var flushed bool
	rows := make([][]string, 0, chunkSize)
	flush := func() error {
		if err := fn(RawTable{Columns: header, Rows: rows}); err != nil {
			return err
		}
		flushed = true
		rows = make([][]string, 0, chunkSize)
		return nil
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read csv row: %w", err)
		}
		rows = append(rows, record)
		if len(rows) >= chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if len(rows) > 0 || !flushed {
		return flush()
	}
	return nil
}
