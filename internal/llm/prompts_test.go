package llm

import (
	"fmt"
	"strings"
	"testing"

	"insightviz/internal/analysis"
)

func promptDataset(n int) *analysis.Dataset {
	var records []map[string]interface{}
	for i := 0; i < n; i++ {
		records = append(records, map[string]interface{}{
			"date":   fmt.Sprintf("2024-02-%02d", i+1),
			"branch": fmt.Sprintf("B%d", i%3),
			"total":  float64(100 + i),
		})
	}
	return analysis.NewDataset(records)
}

func TestBroadPromptIncludesWholeDataset(t *testing.T) {
	t.Parallel()

	p, err := BroadPrompt(promptDataset(8))
	if err != nil {
		t.Fatalf("BroadPrompt: %v", err)
	}
	for _, want := range []string{
		`"date":"2024-02-08"`,
		"- total (int)",
		"bar, line, scatter, pie, hist, area, box, heatmap, bubble",
		"do not bold anything in summary",
		"exact field names",
		"total rising (r2=1.00)",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFocusedPromptSamplesFiveRecords(t *testing.T) {
	t.Parallel()

	p, err := FocusedPrompt(promptDataset(8), "  branch revenue  ")
	if err != nil {
		t.Fatalf("FocusedPrompt: %v", err)
	}
	if !strings.Contains(p, `"date":"2024-02-05"`) {
		t.Error("fifth record should be in the sample")
	}
	if strings.Contains(p, `"date":"2024-02-06"`) {
		t.Error("sixth record should not be in the sample")
	}
	if !strings.Contains(p, "There are 8 records in the full dataset.") {
		t.Error("record count missing")
	}
	if strings.Count(p, `"""branch revenue"""`) != 2 {
		t.Error("notes should be quoted twice")
	}
}

func TestPromptColumnNotes(t *testing.T) {
	t.Parallel()

	ds := analysis.NewDataset([]map[string]interface{}{
		{"invoice": "A-1", "city": "Yangon", "rating": 7.1},
		{"invoice": "A-2", "city": "Yangon"},
		{"invoice": "A-3", "city": "Mandalay", "rating": 8.4},
		{"invoice": "A-4", "city": "Mandalay", "rating": 9.0},
	})
	p, err := BroadPrompt(ds)
	if err != nil {
		t.Fatalf("BroadPrompt: %v", err)
	}
	for _, want := range []string{
		"- invoice (string, identifier)",
		"- city (string)",
		"- rating (float, 25% missing)",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
