package etl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

// Job is a queued ingestion request for an uploaded report file.
type Job struct {
	Path        string
	SourceFile  string
	IngestionID string
}

// Config controls the ingestion worker pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Ingestor processes uploaded report files on a background worker pool
// and appends the normalized rows to the fact store. Failures are
// logged; callers have already been acknowledged by then.
type Ingestor struct {
	store      storage.Store
	normalizer *Normalizer
	workers    int
	jobs       chan Job
	logger     *logrus.Logger
	wg         sync.WaitGroup
}

// NewIngestor creates an ingestor backed by the given store.
func NewIngestor(store storage.Store, normalizer *Normalizer, logger *logrus.Logger, cfg Config) *Ingestor {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	return &Ingestor{
		store:      store,
		normalizer: normalizer,
		workers:    cfg.Workers,
		jobs:       make(chan Job, cfg.QueueSize),
		logger:     logger,
	}
}

// GenerateIngestionID returns a new opaque batch identifier.
func GenerateIngestionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Start launches the worker pool.
func (ig *Ingestor) Start() {
	ig.logger.Infof("Starting %d ingestion workers", ig.workers)
	for i := 0; i < ig.workers; i++ {
		ig.wg.Add(1)
		go ig.worker(i + 1)
	}
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (ig *Ingestor) Stop() {
	close(ig.jobs)
	ig.wg.Wait()
	ig.logger.Info("Ingestion workers stopped")
}

// Enqueue schedules a file for background ingestion without blocking.
// A full queue is reported to the caller instead of queuing forever.
func (ig *Ingestor) Enqueue(job Job) error {
	select {
	case ig.jobs <- job:
		return nil
	default:
		return fmt.Errorf("ingestion queue is full")
	}
}

func (ig *Ingestor) worker(workerID int) {
	defer ig.wg.Done()

	for job := range ig.jobs {
		rows, err := ig.ProcessFile(context.Background(), job.Path, job.SourceFile, job.IngestionID)
		if err != nil {
			ig.logger.Errorf("Worker %d: ingestion of %s failed (ingestion_id=%s): %v",
				workerID, job.SourceFile, job.IngestionID, err)
			continue
		}
		ig.logger.Infof("Worker %d: ingested %d rows from %s (ingestion_id=%s)",
			workerID, rows, job.SourceFile, job.IngestionID)
	}

	ig.logger.Infof("Worker %d stopped", workerID)
}

// ProcessFile ingests one report file synchronously and returns the
// number of rows appended. CSV files stream in chunks; earlier chunks
// stay committed when a later chunk fails.
func (ig *Ingestor) ProcessFile(ctx context.Context, path, sourceFile, ingestionID string) (int64, error) {
	var total int64

	insert := func(table RawTable) error {
		rows, err := ig.normalizer.Normalize(table, sourceFile, ingestionID)
		if err != nil {
			return err
		}
		if err := ig.store.InsertFacts(ctx, rows); err != nil {
			return err
		}
		total += int64(len(rows))
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if err := ReadCSVChunks(path, csvChunkSize, insert); err != nil {
			return total, err
		}
	case ".xlsx":
		table, err := ReadExcel(path)
		if err != nil {
			return total, err
		}
		if err := insert(table); err != nil {
			return total, err
		}
	case ".pdf":
		table, err := ReadPDF(path)
		if err != nil {
			return total, err
		}
		if err := insert(table); err != nil {
			return total, err
		}
	default:
		return 0, fmt.Errorf("%w: unsupported file type %q", model.ErrIngestion, filepath.Ext(path))
	}

	return total, nil
}
