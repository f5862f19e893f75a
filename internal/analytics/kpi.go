package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

// granularities lists the supported trend bucket sizes. Anything else
// falls back to daily buckets.
var granularities = map[string]bool{
	"day":   true,
	"week":  true,
	"month": true,
}

// breakdownDimensions lists the columns a breakdown may group by.
// The dimension is interpolated into SQL, so it must come from here.
var breakdownDimensions = map[string]bool{
	"product":     true,
	"category":    true,
	"region":      true,
	"customer":    true,
	"salesperson": true,
}

// Engine computes aggregate metrics over the fact store.
type Engine struct {
	store storage.Store
}

// NewEngine creates an analytics engine backed by the given store.
func NewEngine(store storage.Store) *Engine {
	return &Engine{store: store}
}

// KPIs computes headline totals for the filtered fact set. An empty
// result set yields zero totals and null top segments.
func (e *Engine) KPIs(ctx context.Context, f model.Filter) (*model.KPIs, error) {
	where, args := CompileFilter(f)

	var k model.KPIs
	row := e.store.QueryRow(ctx, fmt.Sprintf(`
		SELECT COALESCE(SUM(sales_amount), 0) AS total_sales,
		       COALESCE(SUM(quantity), 0) AS total_quantity
		FROM fact_sales
		WHERE %s
	`, where), args...)
	if err := row.Scan(&k.TotalSales, &k.TotalQuantity); err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	if k.TotalQuantity != 0 {
		k.AverageBasket = k.TotalSales / k.TotalQuantity
	}

	var err error
	if k.TopProduct, err = e.topSegment(ctx, "product", where, args); err != nil {
		return nil, err
	}
	if k.TopRegion, err = e.topSegment(ctx, "region", where, args); err != nil {
		return nil, err
	}

	return &k, nil
}

// topSegment returns the dimension value with the highest sales total,
// or nil when no rows match the filter.
func (e *Engine) topSegment(ctx context.Context, dimension, where string, args []any) (*string, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM fact_sales
		WHERE %s
		GROUP BY %s
		ORDER BY SUM(sales_amount) DESC
		LIMIT 1
	`, dimension, where, dimension)

	var v string
	err := e.store.QueryRow(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute top %s: %w", dimension, err)
	}
	return &v, nil
}

// Trend buckets the filtered fact set by day, week or month and
// attaches a trailing 7-bucket moving average to each point. An
// unknown granularity falls back to "day".
func (e *Engine) Trend(ctx context.Context, f model.Filter, granularity string) (*model.TrendSeries, error) {
	if !granularities[granularity] {
		granularity = "day"
	}
	where, args := CompileFilter(f)

	query := fmt.Sprintf(`
		SELECT bucket, total_sales, total_quantity,
		       AVG(total_sales) OVER (
		           ORDER BY bucket
		           ROWS BETWEEN 6 PRECEDING AND CURRENT ROW
		       ) AS moving_average
		FROM (
			SELECT DATE_TRUNC('%s', date) AS bucket,
			       SUM(sales_amount) AS total_sales,
			       SUM(quantity) AS total_quantity
			FROM fact_sales
			WHERE %s
			GROUP BY 1
		)
		ORDER BY bucket
	`, granularity, where)

	rows, err := e.store.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trend: %w", err)
	}
	defer rows.Close()

	series := make([]model.TrendPoint, 0)
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.Bucket, &p.TotalSales, &p.TotalQuantity, &p.MovingAverage); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &model.TrendSeries{Granularity: granularity, Series: series}, nil
}

// Breakdown sums sales per value of the given dimension, largest
// first, capped at 20 rows. Unknown dimensions are rejected before any
// SQL is built.
func (e *Engine) Breakdown(ctx context.Context, f model.Filter, dimension string) ([]model.BreakdownRow, error) {
	if !breakdownDimensions[dimension] {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidDimension, dimension)
	}
	where, args := CompileFilter(f)

	query := fmt.Sprintf(`
		SELECT %s AS key,
		       SUM(sales_amount) AS total_sales,
		       SUM(quantity) AS total_quantity
		FROM fact_sales
		WHERE %s
		GROUP BY %s
		ORDER BY total_sales DESC
		LIMIT 20
	`, dimension, where, dimension)

	rows, err := e.store.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s breakdown: %w", dimension, err)
	}
	defer rows.Close()

	out := make([]model.BreakdownRow, 0)
	for rows.Next() {
		var key sql.NullString
		var r model.BreakdownRow
		if err := rows.Scan(&key, &r.TotalSales, &r.TotalQuantity); err != nil {
			return nil, err
		}
		r.Key = key.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// PeriodDelta compares total sales of the trailing window of the given
// length against the window before it. It returns nil when days is not
// positive or the previous window has no sales to compare against.
// The window anchors on the filter's end date, falling back to today.
func (e *Engine) PeriodDelta(ctx context.Context, f model.Filter, days int) (*float64, error) {
	if days <= 0 {
		return nil, nil
	}

	end := time.Now().UTC()
	if f.EndDate != nil {
		end = *f.EndDate
	}
	start := end.AddDate(0, 0, -days)
	prevStart := start.AddDate(0, 0, -days)

	var current, previous sql.NullFloat64
	err := e.store.QueryRow(ctx, `
		WITH cur AS (
			SELECT SUM(sales_amount) AS s FROM fact_sales
			WHERE date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		), prev AS (
			SELECT SUM(sales_amount) AS s FROM fact_sales
			WHERE date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		)
		SELECT cur.s, prev.s FROM cur, prev
	`,
		start.Format(dateLayout), end.Format(dateLayout),
		prevStart.Format(dateLayout), start.Format(dateLayout),
	).Scan(&current, &previous)
	if err != nil {
		return nil, fmt.Errorf("failed to compute period delta: %w", err)
	}

	if !previous.Valid || previous.Float64 == 0 {
		return nil, nil
	}
	delta := (current.Float64 - previous.Float64) / previous.Float64
	return &delta, nil
}
