package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/salescope/salescope/internal/model"
)

// nullableColumns are profiled for their null ratio.
var nullableColumns = []string{"customer", "salesperson", "currency"}

// measureColumns are profiled for mean and spread.
var measureColumns = []string{"quantity", "unit_price", "sales_amount"}

// Profile summarizes the fact table: row count, date coverage, null
// ratios for the optional columns and mean/std for the measures. Mean
// and std are nil on an empty table.
func (e *Engine) Profile(ctx context.Context) (*model.DatasetProfile, error) {
	var (
		p       model.DatasetProfile
		minDate sql.NullTime
		maxDate sql.NullTime
	)
	if err := e.store.QueryRow(ctx, `
		SELECT COUNT(*), MIN(date), MAX(date) FROM fact_sales
	`).Scan(&p.RowCount, &minDate, &maxDate); err != nil {
		return nil, fmt.Errorf("failed to profile fact table: %w", err)
	}
	if minDate.Valid {
		p.MinDate = &minDate.Time
	}
	if maxDate.Valid {
		p.MaxDate = &maxDate.Time
	}

	p.Columns = make([]model.ColumnProfile, 0, len(nullableColumns)+len(measureColumns))

	for _, col := range nullableColumns {
		var ratio sql.NullFloat64
		query := fmt.Sprintf(`SELECT AVG(CASE WHEN %s IS NULL THEN 1.0 ELSE 0.0 END) FROM fact_sales`, col)
		if err := e.store.QueryRow(ctx, query).Scan(&ratio); err != nil {
			return nil, fmt.Errorf("failed to profile column %s: %w", col, err)
		}
		p.Columns = append(p.Columns, model.ColumnProfile{Name: col, NullRatio: ratio.Float64})
	}

	for _, col := range measureColumns {
		var mean, std sql.NullFloat64
		query := fmt.Sprintf(`SELECT AVG(%s), STDDEV_POP(%s) FROM fact_sales`, col, col)
		if err := e.store.QueryRow(ctx, query).Scan(&mean, &std); err != nil {
			return nil, fmt.Errorf("failed to profile column %s: %w", col, err)
		}
		cp := model.ColumnProfile{Name: col}
		if mean.Valid {
			cp.Mean = &mean.Float64
		}
		if std.Valid {
			cp.Std = &std.Float64
		}
		p.Columns = append(p.Columns, cp)
	}

	return &p, nil
}
