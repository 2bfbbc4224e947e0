package service

import (
	"context"
	"time"

	"insightviz/internal/analysis"
	"insightviz/internal/logging"
	"insightviz/internal/models"
)

// Suggester asks the model for chart suggestions and a summary.
type Suggester interface {
	SuggestCharts(ctx context.Context, ds *analysis.Dataset) (models.AnalysisResult, error)
	SuggestFocused(ctx context.Context, ds *analysis.Dataset, notes string) (models.AnalysisResult, error)
}

// ReportBuilder turns suggestions into a PDF document.
type ReportBuilder interface {
	Build(ctx context.Context, ds *analysis.Dataset, suggestions []models.ChartSpec, summary string) ([]byte, error)
}

// InsightService runs the two request pipelines: model suggestions followed by
// either the chart archive or the PDF report.
type InsightService struct {
	suggester Suggester
	export    *ExportService
	reports   ReportBuilder
}

// NewInsightService creates the pipeline service.
func NewInsightService(suggester Suggester, export *ExportService, reports ReportBuilder) *InsightService {
	if export == nil {
		export = NewExportService(nil)
	}
	return &InsightService{suggester: suggester, export: export, reports: reports}
}

// GenerateGraphs suggests charts over the whole dataset and returns them as a
// zip archive.
func (s *InsightService) GenerateGraphs(ctx context.Context, ds *analysis.Dataset) ([]byte, error) {
	start := time.Now()
	result, err := s.suggester.SuggestCharts(ctx, ds)
	if err != nil {
		return nil, err
	}
	logSuggestions(ctx, "graphs", ds, result, time.Since(start))
	return s.export.GenerateZip(ctx, ds, result.Suggestions, result.Summary)
}

// GenerateReport suggests charts focused on the analyst notes and returns the
// PDF report.
func (s *InsightService) GenerateReport(ctx context.Context, ds *analysis.Dataset, notes string) ([]byte, error) {
	start := time.Now()
	result, err := s.suggester.SuggestFocused(ctx, ds, notes)
	if err != nil {
		return nil, err
	}
	logSuggestions(ctx, "report", ds, result, time.Since(start))
	return s.reports.Build(ctx, ds, result.Suggestions, result.Summary)
}

func logSuggestions(ctx context.Context, pipeline string, ds *analysis.Dataset, result models.AnalysisResult, took time.Duration) {
	logging.Info().
		Add(logging.Component("insight")).
		Add(logging.FromContext(ctx)).
		Add(logging.Str("pipeline", pipeline)).
		Add(logging.Count("records", ds.Len())).
		Add(logging.Count("suggestions", len(result.Suggestions))).
		Add(logging.Duration(took)).
		Msg("suggestions received")
}
