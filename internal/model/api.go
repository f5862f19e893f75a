package model

// IngestionResponse is the optimistic acknowledgment returned by the
// upload endpoint. Rows are counted by the background worker, so
// RowsIngested is always 0 here.
type IngestionResponse struct {
	IngestionID  string `json:"ingestion_id"`
	SourceFile   string `json:"source_file"`
	Status       string `json:"status"`
	RowsIngested int64  `json:"rows_ingested"`
}

// AnalysisRequest carries the filter plus tuning knobs for one
// analysis run. Dates are ISO strings (2006-01-02); empty means absent.
type AnalysisRequest struct {
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Region      string  `json:"region"`
	Category    string  `json:"category"`
	Granularity string  `json:"granularity"`
	ZThreshold  float64 `json:"z_threshold"`
	Days        int     `json:"days"`
}

// AnalysisResponse bundles everything one analysis run produces.
// PeriodDelta is nil when Days was 0 or the baseline window is empty.
type AnalysisResponse struct {
	KPIs        KPIs                      `json:"kpis"`
	Trend       TrendSeries               `json:"trend"`
	Breakdowns  map[string][]BreakdownRow `json:"breakdowns"`
	Anomalies   []AnomalyPoint            `json:"anomalies"`
	PeriodDelta *float64                  `json:"period_delta"`
	Insight     *Insight                  `json:"insight"`
}

// NLQueryRequest asks a free-form question against fact_sales.
type NLQueryRequest struct {
	Question string `json:"question" binding:"required,min=3"`
	Limit    int    `json:"limit" binding:"omitempty,min=5,max=500"`
}

// NLQueryResult returns the SQL actually executed and its rows.
type NLQueryResult struct {
	SQL  string           `json:"sql"`
	Rows []map[string]any `json:"rows"`
}
