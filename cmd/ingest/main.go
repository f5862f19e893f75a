package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/salescope/salescope/configs"
	"github.com/salescope/salescope/internal/etl"
	"github.com/salescope/salescope/internal/storage"
)

// Ingests report files from the command line, bypassing the HTTP API.
func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	appConfig := configs.AppLoad()

	dbPath := flag.String("db", appConfig.DBPath, "Path to the DuckDB database file")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		logger.Error("Usage: ingest [-db path] <file.csv|file.xlsx|file.pdf> ...")
		os.Exit(1)
	}

	store, err := storage.NewDuckStore(*dbPath)
	if err != nil {
		logger.Fatalf("Failed to open fact store: %v", err)
	}

	normalizer := etl.NewNormalizer(appConfig.DefaultCurrency)
	ingestor := etl.NewIngestor(store, normalizer, logger, etl.Config{})

	failed := 0
	for _, path := range files {
		ingestionID := etl.GenerateIngestionID()
		rows, err := ingestor.ProcessFile(context.Background(), path, filepath.Base(path), ingestionID)
		if err != nil {
			logger.Errorf("Failed to ingest %s: %v", path, err)
			failed++
			continue
		}
		logger.Infof("Ingested %d rows from %s (ingestion_id=%s)", rows, path, ingestionID)
	}

	if err := store.Close(); err != nil {
		logger.Errorf("Failed to close fact store: %v", err)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
