package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/salescope/salescope/configs"
	"github.com/salescope/salescope/internal/analytics"
	"github.com/salescope/salescope/internal/etl"
	"github.com/salescope/salescope/internal/handler"
	"github.com/salescope/salescope/internal/insight"
	"github.com/salescope/salescope/internal/llm"
	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/nlsql"
	"github.com/salescope/salescope/internal/service"
	"github.com/salescope/salescope/internal/storage"
)

const uploadMaxBytes = 1024

func newTestRouter(t *testing.T, provider llm.Provider) (*gin.Engine, storage.Store, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDuckStore(filepath.Join(t.TempDir(), "test.duckdb"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	uploadDir := t.TempDir()

	ingestor := etl.NewIngestor(store, etl.NewNormalizer("EUR"), logger, etl.Config{Workers: 1, QueueSize: 4})
	cfg := configs.LLMConfig{TimeoutSeconds: 10}
	engine := analytics.NewEngine(store)
	detector := analytics.NewDetector(store)
	synth := insight.NewSynthesizer(provider, cfg)
	gate := nlsql.NewGate(store, provider, cfg)

	r := NewRouter(&Config{
		IngestHandler:  handler.NewIngestHandler(service.NewIngestService(store, ingestor, uploadDir), uploadMaxBytes),
		AnalyzeHandler: handler.NewAnalyzeHandler(service.NewAnalyzeService(engine, detector, synth, store, uploadDir, logger)),
		NLSQLHandler:   handler.NewNLSQLHandler(service.NewNLSQLService(gate)),
		HealthHandler:  handler.NewHealthHandler(store),
	})
	return r, store, uploadDir
}

func seedFacts(t *testing.T, store storage.Store) {
	t.Helper()

	facts := make([]model.FactRow, 0, 10)
	for i := 0; i < 10; i++ {
		amount := 10.0
		if i == 9 {
			amount = 200.0
		}
		d, _ := time.Parse("2006-01-02", fmt.Sprintf("2024-03-%02d", i+1))
		facts = append(facts, model.FactRow{
			Date:        d,
			OrderID:     fmt.Sprintf("ORD-%d", i+1),
			Product:     "Widget",
			Category:    "Hardware",
			Region:      "EMEA",
			Quantity:    1,
			UnitPrice:   amount,
			SalesAmount: amount,
			Currency:    "EUR",
			SourceFile:  "seed.csv",
			IngestionID: "seed",
		})
	}
	if err := store.InsertFacts(context.Background(), facts); err != nil {
		t.Fatalf("Failed to seed facts: %v", err)
	}
}

func multipartUpload(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("Failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write multipart body: %v", err)
	}
	w.Close()
	return body, w.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t, &llm.MockProvider{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Expected ok status, got '%s'", w.Body.String())
	}
}

func TestUploadEndpointQueuesFile(t *testing.T) {
	r, _, uploadDir := newTestRouter(t, &llm.MockProvider{})

	csv := "date,order_id,product,category,region,quantity,unit_price,sales_amount\n" +
		"2024-03-01,ORD-1,Widget,Hardware,EMEA,2,10,20\n"
	body, contentType := multipartUpload(t, "report.csv", "text/csv", csv)

	req := httptest.NewRequest("POST", "/v1/ingest/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.IngestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "queued" {
		t.Errorf("Expected status 'queued', got '%s'", resp.Status)
	}
	if len(resp.IngestionID) != 32 {
		t.Errorf("Expected 32 char ingestion_id, got '%s'", resp.IngestionID)
	}
	if resp.RowsIngested != 0 {
		t.Errorf("Expected rows_ingested 0 in the ack, got %d", resp.RowsIngested)
	}

	// The upload is retained under its ingestion id
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		t.Fatalf("Failed to list upload dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 retained upload, got %d", len(entries))
	}
	if entries[0].Name() != resp.IngestionID+"_report.csv" {
		t.Errorf("Expected retained name '%s_report.csv', got '%s'", resp.IngestionID, entries[0].Name())
	}
}

func TestUploadEndpointRejections(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		filename    string
		contentType string
		content     string
		expected    int
	}{
		{"Missing file field", "data", "report.csv", "text/csv", "a,b\n", http.StatusBadRequest},
		{"Unsupported content type", "file", "report.csv", "text/plain", "a,b\n", http.StatusUnsupportedMediaType},
		{"Unsupported extension", "file", "report.txt", "text/csv", "a,b\n", http.StatusUnsupportedMediaType},
		{"Oversized file", "file", "report.csv", "text/csv", strings.Repeat("x", uploadMaxBytes+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRouter(t, &llm.MockProvider{})

			body := &bytes.Buffer{}
			mw := multipart.NewWriter(body)
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, tt.field, tt.filename))
			h.Set("Content-Type", tt.contentType)
			part, err := mw.CreatePart(h)
			if err != nil {
				t.Fatalf("Failed to create multipart part: %v", err)
			}
			part.Write([]byte(tt.content))
			mw.Close()

			req := httptest.NewRequest("POST", "/v1/ingest/upload", body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}
}

func TestRecentEndpoint(t *testing.T) {
	r, store, _ := newTestRouter(t, &llm.MockProvider{})
	seedFacts(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/ingest/recent", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var batches []model.SourceBatch
	if err := json.Unmarshal(w.Body.Bytes(), &batches); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}
	if batches[0].RowCount != 10 {
		t.Errorf("Expected row_count 10, got %d", batches[0].RowCount)
	}
}

func TestRecentEndpointBadLimit(t *testing.T) {
	r, _, _ := newTestRouter(t, &llm.MockProvider{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/ingest/recent?limit=abc", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	r, store, _ := newTestRouter(t, &llm.MockProvider{})
	seedFacts(t, store)

	req := httptest.NewRequest("POST", "/v1/analyze/run", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.AnalysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.KPIs.TotalSales != 290 {
		t.Errorf("Expected total_sales 290, got %f", resp.KPIs.TotalSales)
	}
	if len(resp.Anomalies) != 1 {
		t.Errorf("Expected 1 anomaly, got %d", len(resp.Anomalies))
	}
	if resp.Insight == nil {
		t.Error("Expected a synthesized insight")
	}
}

func TestAnalyzeEndpointBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{`},
		{"Invalid date", `{"start_date": "03/2024"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRouter(t, &llm.MockProvider{})

			req := httptest.NewRequest("POST", "/v1/analyze/run", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestAnalyzeEndpointCollaboratorFailure(t *testing.T) {
	r, store, _ := newTestRouter(t, &llm.MockProvider{Err: errors.New("backend down")})
	seedFacts(t, store)

	req := httptest.NewRequest("POST", "/v1/analyze/run", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProfileEndpoint(t *testing.T) {
	r, store, _ := newTestRouter(t, &llm.MockProvider{})
	seedFacts(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/analyze/profile", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var profile model.DatasetProfile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if profile.RowCount != 10 {
		t.Errorf("Expected row_count 10, got %d", profile.RowCount)
	}
}

func TestNLSQLEndpoint(t *testing.T) {
	provider := &llm.MockProvider{Response: "SELECT region, SUM(sales_amount) FROM fact_sales GROUP BY region"}
	r, store, _ := newTestRouter(t, provider)
	seedFacts(t, store)

	req := httptest.NewRequest("POST", "/v1/nlsql/query",
		strings.NewReader(`{"question": "total sales by region"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result model.NLQueryResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(result.SQL, "LIMIT") {
		t.Errorf("Expected a bounded query, got '%s'", result.SQL)
	}
	if len(result.Rows) != 1 {
		t.Errorf("Expected 1 region row, got %d", len(result.Rows))
	}
}

func TestNLSQLEndpointRejections(t *testing.T) {
	tests := []struct {
		name     string
		provider *llm.MockProvider
		body     string
		expected int
	}{
		{
			"Question too short",
			&llm.MockProvider{},
			`{"question": "hi"}`,
			http.StatusBadRequest,
		},
		{
			"Unsafe generated SQL",
			&llm.MockProvider{Response: "DROP TABLE fact_sales"},
			`{"question": "wipe the table"}`,
			http.StatusBadRequest,
		},
		{
			"Provider failure",
			&llm.MockProvider{Err: errors.New("backend down")},
			`{"question": "total sales"}`,
			http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRouter(t, tt.provider)

			req := httptest.NewRequest("POST", "/v1/nlsql/query", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}
}
