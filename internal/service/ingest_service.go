// Package service implements the application logic between the HTTP
// handlers and the storage, analytics and collaborator layers.
package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/salescope/salescope/internal/etl"
	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

// IngestService coordinates upload retention and background ingestion.
type IngestService struct {
	store     storage.Store
	ingestor  *etl.Ingestor
	uploadDir string
}

// NewIngestService creates the ingestion service.
func NewIngestService(store storage.Store, ingestor *etl.Ingestor, uploadDir string) *IngestService {
	return &IngestService{
		store:     store,
		ingestor:  ingestor,
		uploadDir: uploadDir,
	}
}

// NewIngestionID mints the identifier that groups a batch's rows.
func (s *IngestService) NewIngestionID() string {
	return etl.GenerateIngestionID()
}

// DestPath is where an upload is retained. The ingestion id prefix
// keeps re-uploads of the same filename apart.
func (s *IngestService) DestPath(ingestionID, filename string) string {
	return filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", ingestionID, filepath.Base(filename)))
}

// Queue schedules background ingestion of a retained upload.
func (s *IngestService) Queue(path, sourceFile, ingestionID string) error {
	return s.ingestor.Enqueue(etl.Job{
		Path:        path,
		SourceFile:  sourceFile,
		IngestionID: ingestionID,
	})
}

// RecentBatches lists recent ingestion batches, newest data first.
func (s *IngestService) RecentBatches(ctx context.Context, limit int) ([]model.SourceBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.RecentSources(ctx, limit)
}
