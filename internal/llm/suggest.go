package llm

import (
	"context"

	"insightviz/internal/analysis"
	"insightviz/internal/models"
)

// SuggestCharts runs the broad prompt over the whole dataset.
func (s *Service) SuggestCharts(ctx context.Context, ds *analysis.Dataset) (models.AnalysisResult, error) {
	prompt, err := BroadPrompt(ds)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return s.suggest(ctx, prompt)
}

// SuggestFocused runs the notes-focused prompt.
func (s *Service) SuggestFocused(ctx context.Context, ds *analysis.Dataset, notes string) (models.AnalysisResult, error) {
	prompt, err := FocusedPrompt(ds, notes)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return s.suggest(ctx, prompt)
}

func (s *Service) suggest(ctx context.Context, prompt string) (models.AnalysisResult, error) {
	text, err := s.Generate(ctx, prompt)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return Normalize(text), nil
}
