package etl

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := storage.NewDuckStore(filepath.Join(t.TempDir(), "test.duckdb"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestIngestor(t *testing.T, store storage.Store, cfg Config) *Ingestor {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewIngestor(store, NewNormalizer("EUR"), logger, cfg)
}

func countFacts(t *testing.T, store storage.Store) int64 {
	t.Helper()

	var n int64
	if err := store.QueryRow(context.Background(), "SELECT COUNT(*) FROM fact_sales").Scan(&n); err != nil {
		t.Fatalf("Failed to count facts: %v", err)
	}
	return n
}

const csvHeader = "date,order_id,product,category,region,quantity,unit_price,sales_amount\n"

func TestProcessFileCSV(t *testing.T) {
	store := newTestStore(t)
	ig := newTestIngestor(t, store, Config{})

	path := writeTempFile(t, "report.csv", csvHeader+
		"2024-03-01,ORD-1,Widget,Hardware,EMEA,2,10,0\n"+
		"2024-03-02,ORD-2,Gadget,Hardware,APAC,1,30,30\n")

	rows, err := ig.ProcessFile(context.Background(), path, "report.csv", "ing1")
	if err != nil {
		t.Fatalf("Expected ingestion to succeed, got %v", err)
	}
	if rows != 2 {
		t.Errorf("Expected 2 rows ingested, got %d", rows)
	}

	// A zero sales_amount is recomputed from quantity * unit_price
	var amount float64
	err = store.QueryRow(context.Background(),
		"SELECT sales_amount FROM fact_sales WHERE order_id = ?", "ORD-1").Scan(&amount)
	if err != nil {
		t.Fatalf("Failed to read back fact row: %v", err)
	}
	if amount != 20.0 {
		t.Errorf("Expected derived sales_amount 20.0, got %f", amount)
	}
}

func TestProcessFileMissingColumnsPersistsNothing(t *testing.T) {
	store := newTestStore(t)
	ig := newTestIngestor(t, store, Config{})

	path := writeTempFile(t, "broken.csv", "date,product\n2024-03-01,Widget\n")

	_, err := ig.ProcessFile(context.Background(), path, "broken.csv", "ing1")
	if err == nil {
		t.Fatal("Expected missing columns to fail the batch")
	}
	if !errors.Is(err, model.ErrIngestion) {
		t.Errorf("Expected ErrIngestion, got %v", err)
	}

	if n := countFacts(t, store); n != 0 {
		t.Errorf("Expected no persisted rows, got %d", n)
	}
}

func TestProcessFileExcel(t *testing.T) {
	store := newTestStore(t)
	ig := newTestIngestor(t, store, Config{})

	path := writeWorkbook(t,
		[]interface{}{"date", "order_id", "product", "category", "region", "quantity", "unit_price", "sales_amount"},
		[]interface{}{"2024-03-01", "ORD-1", "Widget", "Hardware", "EMEA", "2", "10", "20"},
	)

	rows, err := ig.ProcessFile(context.Background(), path, "report.xlsx", "ing1")
	if err != nil {
		t.Fatalf("Expected ingestion to succeed, got %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 row ingested, got %d", rows)
	}

	var product string
	err = store.QueryRow(context.Background(),
		"SELECT product FROM fact_sales WHERE order_id = ?", "ORD-1").Scan(&product)
	if err != nil {
		t.Fatalf("Failed to read back fact row: %v", err)
	}
	if product != "Widget" {
		t.Errorf("Expected product 'Widget', got '%s'", product)
	}
}

func TestProcessFileUnsupportedType(t *testing.T) {
	store := newTestStore(t)
	ig := newTestIngestor(t, store, Config{})

	_, err := ig.ProcessFile(context.Background(), "notes.txt", "notes.txt", "ing1")
	if err == nil {
		t.Fatal("Expected unsupported type to be rejected")
	}
	if !errors.Is(err, model.ErrIngestion) {
		t.Errorf("Expected ErrIngestion, got %v", err)
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	store := newTestStore(t)
	ig := newTestIngestor(t, store, Config{Workers: 1, QueueSize: 1})

	// No workers started, so the second enqueue finds the queue full
	if err := ig.Enqueue(Job{Path: "a.csv"}); err != nil {
		t.Fatalf("Expected first enqueue to succeed, got %v", err)
	}
	if err := ig.Enqueue(Job{Path: "b.csv"}); err == nil {
		t.Error("Expected second enqueue to report a full queue")
	}
}

func TestIngestorWorkerDrain(t *testing.T) {
	store := newTestStore(t)
	ig := newTestIngestor(t, store, Config{Workers: 2, QueueSize: 4})

	path := writeTempFile(t, "report.csv", csvHeader+
		"2024-03-01,ORD-1,Widget,Hardware,EMEA,2,10,20\n")

	ig.Start()
	if err := ig.Enqueue(Job{Path: path, SourceFile: "report.csv", IngestionID: "ing1"}); err != nil {
		t.Fatalf("Expected enqueue to succeed, got %v", err)
	}
	ig.Stop()

	if n := countFacts(t, store); n != 1 {
		t.Errorf("Expected 1 persisted row after drain, got %d", n)
	}
}

func TestGenerateIngestionID(t *testing.T) {
	id1 := GenerateIngestionID()
	id2 := GenerateIngestionID()

	if id1 == id2 {
		t.Error("Expected unique ingestion ids")
	}
	if len(id1) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(id1))
	}
}
