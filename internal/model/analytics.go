package model

import "time"

// KPIs holds the headline aggregates for a filtered fact set.
// Top fields are nil when the filter matches no rows.
type KPIs struct {
	TotalSales    float64 `json:"total_sales"`
	TotalQuantity float64 `json:"total_quantity"`
	AverageBasket float64 `json:"average_basket"`
	TopProduct    *string `json:"top_product"`
	TopRegion     *string `json:"top_region"`
}

// TrendPoint is one time bucket of the trend series. MovingAverage is
// the trailing 7-bucket mean of TotalSales.
type TrendPoint struct {
	Bucket        time.Time `json:"bucket"`
	TotalSales    float64   `json:"total_sales"`
	TotalQuantity float64   `json:"total_quantity"`
	MovingAverage float64   `json:"moving_average"`
}

// TrendSeries is the bucketed trend, sorted ascending by bucket.
type TrendSeries struct {
	Granularity string       `json:"granularity"`
	Series      []TrendPoint `json:"series"`
}

// BreakdownRow is one group of a segment breakdown.
type BreakdownRow struct {
	Key           string  `json:"key"`
	TotalSales    float64 `json:"total_sales"`
	TotalQuantity float64 `json:"total_quantity"`
}

// Insight is the validated structured narrative returned by the LLM.
type Insight struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Risks      []string `json:"risks"`
	Actions    []string `json:"actions"`
}

// ColumnProfile describes one column in the dataset profile. Mean and
// Std are set only for numeric columns.
type ColumnProfile struct {
	Name      string   `json:"name"`
	NullRatio float64  `json:"null_ratio"`
	Mean      *float64 `json:"mean,omitempty"`
	Std       *float64 `json:"std,omitempty"`
}

// DatasetProfile summarizes the whole fact table.
type DatasetProfile struct {
	RowCount int64           `json:"row_count"`
	MinDate  *time.Time      `json:"min_date"`
	MaxDate  *time.Time      `json:"max_date"`
	Columns  []ColumnProfile `json:"columns"`
}
