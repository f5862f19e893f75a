// Package storage provides the DuckDB-backed fact store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/salescope/salescope/internal/model"

	_ "github.com/marcboeker/go-duckdb"
)

// Store defines the interface for persisting and querying fact rows.
// Implementations must be safe for concurrent use.
type Store interface {
	// InsertFacts appends a batch of fact rows atomically. Either the
	// whole batch commits or none of it does.
	InsertFacts(ctx context.Context, rows []model.FactRow) error

	// Query runs a read query and returns rows as ordered field maps.
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)

	// QueryRows runs a read query for callers that scan typed values.
	QueryRows(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow runs a read query expected to return at most one row.
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// RecentSources lists recent ingestion batches, newest data first.
	RecentSources(ctx context.Context, limit int) ([]model.SourceBatch, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close releases database resources.
	Close() error
}

// duckStore implements Store on an embedded DuckDB file.
type duckStore struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// NewDuckStore opens (or creates) the DuckDB file at path, creates the
// fact_sales schema if needed, and verifies connectivity.
func NewDuckStore(path string) (Store, error) {
	if dir := filepath.Dir(filepath.Clean(path)); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &duckStore{db: db}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// bootstrap creates the fact table and its indexes.
func (s *duckStore) bootstrap() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS fact_sales (
			date DATE NOT NULL,
			order_id VARCHAR NOT NULL,
			product VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			region VARCHAR NOT NULL,
			customer VARCHAR,
			salesperson VARCHAR,
			quantity DOUBLE NOT NULL,
			unit_price DOUBLE NOT NULL,
			sales_amount DOUBLE NOT NULL,
			currency VARCHAR,
			source_file VARCHAR,
			ingestion_id VARCHAR
		)
	`); err != nil {
		return fmt.Errorf("failed to create fact_sales table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON fact_sales(date)`,
		`CREATE INDEX IF NOT EXISTS idx_fact_sales_ingestion ON fact_sales(ingestion_id)`,
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// prepareStatements pre-compiles the hot insert path.
func (s *duckStore) prepareStatements() error {
	var err error
	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO fact_sales (
			date, order_id, product, category, region,
			customer, salesperson, quantity, unit_price,
			sales_amount, currency, source_file, ingestion_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	return nil
}

// InsertFacts appends rows inside one transaction so a failing row
// never leaves a partial batch behind.
func (s *duckStore) InsertFacts(ctx context.Context, rows []model.FactRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert transaction: %w", err)
	}

	stmt := tx.StmtContext(ctx, s.insertStmt)
	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.Date,
			r.OrderID,
			r.Product,
			r.Category,
			r.Region,
			r.Customer,
			r.Salesperson,
			r.Quantity,
			r.UnitPrice,
			r.SalesAmount,
			r.Currency,
			r.SourceFile,
			r.IngestionID,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert fact row: %w", err)
		}
	}

	return tx.Commit()
}

// Query returns result rows as a slice of column-name keyed maps,
// preserving row order. Byte slices come back as strings.
func (s *duckStore) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rowsToMaps(rows)
}

func (s *duckStore) QueryRows(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *duckStore) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// RecentSources groups fact rows by provenance and orders batches by
// their newest fact date.
func (s *duckStore) RecentSources(ctx context.Context, limit int) ([]model.SourceBatch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_file, ingestion_id,
		       MIN(date) AS min_date, MAX(date) AS max_date,
		       COUNT(*) AS row_count
		FROM fact_sales
		GROUP BY source_file, ingestion_id
		ORDER BY MAX(date) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sources: %w", err)
	}
	defer rows.Close()

	batches := make([]model.SourceBatch, 0)
	for rows.Next() {
		var b model.SourceBatch
		if err := rows.Scan(&b.SourceFile, &b.IngestionID, &b.MinDate, &b.MaxDate, &b.RowCount); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *duckStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the prepared statements and the database.
func (s *duckStore) Close() error {
	var firstErr error
	if s.insertStmt != nil {
		if err := s.insertStmt.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// rowsToMaps converts sql rows into ordered field maps.
func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
