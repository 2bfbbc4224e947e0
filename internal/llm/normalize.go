package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"insightviz/internal/logging"
	"insightviz/internal/models"
)

const (
	// SummaryUnavailable is used when the model answer cannot be parsed.
	SummaryUnavailable = "Unable to generate summary."
	// SummaryMissing is used when the answer parses but carries no summary.
	SummaryMissing = "No summary provided."
)

// jsonObject spans from the first '{' to the last '}'.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// Normalize turns free-form model text into an AnalysisResult. It never
// fails: unusable input yields no suggestions and a placeholder summary.
func Normalize(raw string) models.AnalysisResult {
	fallback := models.AnalysisResult{Suggestions: []models.ChartSpec{}, Summary: SummaryUnavailable}

	match := jsonObject.FindString(raw)
	if match == "" {
		logging.Warn().Add(logging.Component("normalize")).Msg("no JSON object found in model response")
		return fallback
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(match), &envelope); err != nil {
		logging.Warn().
			Add(logging.Component("normalize")).
			Add(logging.ErrorField(err)).
			Msg("failed to parse model response")
		return fallback
	}

	result := models.AnalysisResult{
		Suggestions: decodeSuggestions(envelope["suggestions"]),
		Summary:     SummaryMissing,
	}

	var summary string
	if raw, ok := envelope["summary"]; ok && json.Unmarshal(raw, &summary) == nil && strings.TrimSpace(summary) != "" {
		result.Summary = summary
	}
	return result
}

// decodeSuggestions keeps only the entries that are JSON objects.
func decodeSuggestions(raw json.RawMessage) []models.ChartSpec {
	out := []models.ChartSpec{}
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			continue
		}
		var spec models.ChartSpec
		if err := json.Unmarshal(item, &spec); err != nil {
			continue
		}
		out = append(out, spec)
	}
	return out
}
