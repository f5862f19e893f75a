package model

import "time"

// Filter narrows the fact set for analytics queries. All fields are
// optional; nil dates and empty strings mean "no constraint".
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Region    string
	Category  string
}

// AnomalyPoint is one flagged outlier row. Score keeps its sign so
// callers can tell spikes from drops.
type AnomalyPoint struct {
	Product     string    `json:"product"`
	Region      string    `json:"region"`
	Date        time.Time `json:"date"`
	SalesAmount float64   `json:"sales_amount"`
	Score       float64   `json:"score"`
}
