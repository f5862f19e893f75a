// Package model defines the shared domain types: fact rows, filters,
// analytics results, and the API request/response shapes.
package model

import "time"

// FactRow is one normalized sales transaction in the fact_sales table.
// Customer and Salesperson stay nil when the source report omits them.
type FactRow struct {
	Date        time.Time `json:"date"`
	OrderID     string    `json:"order_id"`
	Product     string    `json:"product"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	Customer    *string   `json:"customer"`
	Salesperson *string   `json:"salesperson"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	SalesAmount float64   `json:"sales_amount"`
	Currency    string    `json:"currency"`
	SourceFile  string    `json:"source_file"`
	IngestionID string    `json:"ingestion_id"`
}

// FactTable is the single analytical table every query runs against.
const FactTable = "fact_sales"

// CanonicalColumns is the fixed column order of fact_sales.
var CanonicalColumns = []string{
	"date",
	"order_id",
	"product",
	"category",
	"region",
	"customer",
	"salesperson",
	"quantity",
	"unit_price",
	"sales_amount",
	"currency",
	"source_file",
	"ingestion_id",
}

// RequiredColumns must all be present in an uploaded report, after header
// normalization. A missing one rejects the whole batch.
var RequiredColumns = []string{
	"date",
	"order_id",
	"product",
	"category",
	"region",
	"sales_amount",
	"quantity",
	"unit_price",
}

// OptionalColumns are filled with defaults when absent.
var OptionalColumns = []string{"customer", "salesperson", "currency"}

// SourceBatch describes one ingestion run as recorded in fact_sales.
type SourceBatch struct {
	SourceFile  string    `json:"source_file"`
	IngestionID string    `json:"ingestion_id"`
	MinDate     time.Time `json:"min_date"`
	MaxDate     time.Time `json:"max_date"`
	RowCount    int64     `json:"row_count"`
}
