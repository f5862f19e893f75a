package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/salescope/salescope/configs"
	"github.com/salescope/salescope/internal/analytics"
	"github.com/salescope/salescope/internal/etl"
	"github.com/salescope/salescope/internal/handler"
	"github.com/salescope/salescope/internal/insight"
	"github.com/salescope/salescope/internal/llm"
	"github.com/salescope/salescope/internal/nlsql"
	"github.com/salescope/salescope/internal/router"
	"github.com/salescope/salescope/internal/service"
	"github.com/salescope/salescope/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	appConfig := configs.AppLoad()

	if err := os.MkdirAll(appConfig.Upload.Dir, 0o755); err != nil {
		logger.Fatalf("Failed to create upload directory: %v", err)
	}

	store, err := storage.NewDuckStore(appConfig.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open fact store: %v", err)
	}

	provider, err := llm.New(appConfig.LLM)
	if err != nil {
		logger.Fatalf("Failed to build llm provider: %v", err)
	}

	normalizer := etl.NewNormalizer(appConfig.DefaultCurrency)
	ingestor := etl.NewIngestor(store, normalizer, logger, etl.Config{
		Workers:   appConfig.Ingest.Workers,
		QueueSize: appConfig.Ingest.QueueSize,
	})
	ingestor.Start()

	engine := analytics.NewEngine(store)
	detector := analytics.NewDetector(store)
	synth := insight.NewSynthesizer(provider, appConfig.LLM)
	gate := nlsql.NewGate(store, provider, appConfig.LLM)

	ingestService := service.NewIngestService(store, ingestor, appConfig.Upload.Dir)
	analyzeService := service.NewAnalyzeService(engine, detector, synth, store, appConfig.Upload.Dir, logger)
	nlsqlService := service.NewNLSQLService(gate)

	routerConfig := &router.Config{
		IngestHandler:  handler.NewIngestHandler(ingestService, appConfig.Upload.MaxBytes),
		AnalyzeHandler: handler.NewAnalyzeHandler(analyzeService),
		NLSQLHandler:   handler.NewNLSQLHandler(nlsqlService),
		HealthHandler:  handler.NewHealthHandler(store),
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.ServerPort),
		Handler: router.NewRouter(routerConfig),
	}

	// Run with Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	// Stop accepting requests first, then drain queued ingestions so
	// acknowledged uploads still reach the store.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}

	ingestor.Stop()

	if err := store.Close(); err != nil {
		logger.Errorf("Failed to close fact store: %v", err)
	}

	logger.Info("Shutdown complete")
}
