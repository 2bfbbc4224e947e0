package models

import (
	"encoding/json"
	"strings"
)

// ChartKind constants
const (
	ChartScatter ChartKind = "scatter"
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartHist    ChartKind = "hist"
	ChartBox     ChartKind = "box"
	ChartPie     ChartKind = "pie"
	ChartArea    ChartKind = "area"
	ChartBubble  ChartKind = "bubble"
	ChartHeatmap ChartKind = "heatmap"
)

// ChartKind names one of the supported visualization types.
type ChartKind string

// ChartKinds lists every kind the renderer understands, in prompt order.
var ChartKinds = []ChartKind{
	ChartBar, ChartLine, ChartScatter, ChartPie, ChartHist,
	ChartArea, ChartBox, ChartHeatmap, ChartBubble,
}

// ChartSpec is one visualization request proposed by the model. Every field is
// untrusted: column references may not exist in the dataset.
type ChartSpec struct {
	Type    ChartKind `json:"type"`
	X       string    `json:"x,omitempty"`
	Y       string    `json:"y,omitempty"`
	Labels  string    `json:"labels,omitempty"`
	Values  string    `json:"values,omitempty"`
	Size    string    `json:"size,omitempty"`
	Title   string    `json:"title,omitempty"`
	Insight string    `json:"insight,omitempty"`
}

// UnmarshalJSON decodes a spec leniently. Fields holding anything other than a
// string are treated as absent instead of failing the whole suggestion.
// Column references and text are kept as given; only type is trimmed and
// lowercased.
func (c *ChartSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}

	*c = ChartSpec{
		Type:    ChartKind(strings.ToLower(strings.TrimSpace(str("type")))),
		X:       str("x"),
		Y:       str("y"),
		Labels:  str("labels"),
		Values:  str("values"),
		Size:    str("size"),
		Title:   str("title"),
		Insight: str("insight"),
	}
	return nil
}

// AnalysisResult is the normalized model answer. Suggestions is never nil and
// Summary is never empty.
type AnalysisResult struct {
	Suggestions []ChartSpec `json:"suggestions"`
	Summary     string      `json:"summary"`
}
