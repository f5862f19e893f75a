package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/salescope/salescope/internal/analytics"
	"github.com/salescope/salescope/internal/etl"
	"github.com/salescope/salescope/internal/insight"
	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

// maxPDFPassages caps the prompt context drawn from uploaded PDFs.
const maxPDFPassages = 5

// AnalyzeService orchestrates the analysis pipeline: KPIs, trend,
// breakdowns, anomalies, period delta and the narrative insight.
type AnalyzeService struct {
	engine    *analytics.Engine
	detector  *analytics.Detector
	synth     *insight.Synthesizer
	store     storage.Store
	uploadDir string
	logger    *logrus.Logger
}

// NewAnalyzeService creates the analysis service.
func NewAnalyzeService(
	engine *analytics.Engine,
	detector *analytics.Detector,
	synth *insight.Synthesizer,
	store storage.Store,
	uploadDir string,
	logger *logrus.Logger,
) *AnalyzeService {
	return &AnalyzeService{
		engine:    engine,
		detector:  detector,
		synth:     synth,
		store:     store,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Run executes the full analysis for the requested filter and returns
// the metric bundle plus the synthesized insight. An insight failure
// fails the whole analysis; a partial narrative is never returned.
func (s *AnalyzeService) Run(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	f, err := parseFilter(req)
	if err != nil {
		return nil, err
	}

	kpis, err := s.engine.KPIs(ctx, f)
	if err != nil {
		return nil, err
	}

	trend, err := s.engine.Trend(ctx, f, req.Granularity)
	if err != nil {
		return nil, err
	}

	breakdowns := make(map[string][]model.BreakdownRow, 2)
	for _, dim := range []string{"product", "region"} {
		rows, err := s.engine.Breakdown(ctx, f, dim)
		if err != nil {
			return nil, err
		}
		breakdowns[dim] = rows
	}

	anomalies, err := s.detector.Detect(ctx, f, req.ZThreshold)
	if err != nil {
		return nil, err
	}

	delta, err := s.engine.PeriodDelta(ctx, f, req.Days)
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"kpis":       kpis,
		"trend":      trend,
		"breakdowns": breakdowns,
	}
	ins, err := s.synth.Run(ctx, insight.Context{
		Stats:       stats,
		Anomalies:   anomalies,
		PDFPassages: s.pdfPassages(ctx),
	})
	if err != nil {
		return nil, err
	}

	return &model.AnalysisResponse{
		KPIs:        *kpis,
		Trend:       *trend,
		Breakdowns:  breakdowns,
		Anomalies:   anomalies,
		PeriodDelta: delta,
		Insight:     ins,
	}, nil
}

// Profile summarizes the current fact table.
func (s *AnalyzeService) Profile(ctx context.Context) (*model.DatasetProfile, error) {
	return s.engine.Profile(ctx)
}

// parseFilter validates the request's filter fields. Empty strings
// mean absent.
func parseFilter(req model.AnalysisRequest) (model.Filter, error) {
	var f model.Filter

	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return f, fmt.Errorf("%w: invalid start_date %q", model.ErrValidation, req.StartDate)
		}
		f.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return f, fmt.Errorf("%w: invalid end_date %q", model.ErrValidation, req.EndDate)
		}
		f.EndDate = &t
	}
	f.Region = strings.TrimSpace(req.Region)
	f.Category = strings.TrimSpace(req.Category)

	return f, nil
}

// pdfPassages pulls prompt context from recently ingested PDF uploads.
// Extraction failures only log; the analysis proceeds without context.
func (s *AnalyzeService) pdfPassages(ctx context.Context) []string {
	batches, err := s.store.RecentSources(ctx, 3)
	if err != nil {
		s.logger.Errorf("Failed to list recent sources for pdf context: %v", err)
		return nil
	}

	var passages []string
	for _, b := range batches {
		if strings.ToLower(filepath.Ext(b.SourceFile)) != ".pdf" {
			continue
		}
		path := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", b.IngestionID, b.SourceFile))
		got, err := etl.ExtractPassages(path, maxPDFPassages)
		if err != nil {
			s.logger.Errorf("Failed to extract pdf context from %s: %v", b.SourceFile, err)
			continue
		}
		passages = append(passages, got...)
	}

	if len(passages) > maxPDFPassages {
		passages = passages[:maxPDFPassages]
	}
	return passages
}
