package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"insightviz/internal/analysis"
	"insightviz/internal/models"
)

const focusedSampleRows = 5

// chartTypeList renders the supported kinds for prompts.
func chartTypeList() string {
	names := make([]string, len(models.ChartKinds))
	for i, k := range models.ChartKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

const responseFormat = `# EXPECTED RESPONSE FORMAT (STRICT JSON)
Return your answer in this exact JSON format with no additional text:
{
  "suggestions": [
    {
      "type": "chart_type",
      "x": "x_field",
      "y": "y_field",
      "labels": "category_field (pie only)",
      "values": "value_field (pie only)",
      "size": "size_field (bubble only)",
      "title": "Business-Focused Title",
      "insight": "%s"
    }
  ],
  "summary": "%s"
}
`

// BroadPrompt asks for a full visualization plan over the whole dataset.
func BroadPrompt(ds *analysis.Dataset) (string, error) {
	data, err := json.Marshal(ds.Records())
	if err != nil {
		return "", fmt.Errorf("encode dataset: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert business intelligence analyst specializing in data visualization and strategic insights.\n\n")
	b.WriteString("# DATASET\nAnalyze this dataset carefully:\n```json\n")
	b.Write(data)
	b.WriteString("\n```\n\n")
	writeColumns(&b, ds)
	b.WriteString("# TASK\nPerform a comprehensive business analysis using this data and suggest visualizations that reveal actionable insights.\n\n")
	b.WriteString("# REQUIRED OUTPUTS\n")
	b.WriteString("1. Visualization Recommendations: the most informative visualizations for business stakeholders.\n")
	b.WriteString("2. Business Summary: a concise, high-impact analysis highlighting key findings.\n\n")
	b.WriteString("## Visualization Requirements\nFor each visualization, include:\n")
	fmt.Fprintf(&b, "- The most appropriate chart type (%s)\n", chartTypeList())
	b.WriteString("- Meaningful axis selections or category/value pairs\n")
	b.WriteString("- A business-focused title that communicates the insight\n")
	b.WriteString("- The business question the visualization answers\n\n")
	b.WriteString("Cover performance trends, comparisons, distributions, correlations, anomalies and forecasting indicators where the data allows.\n\n")
	b.WriteString("## Business Insights Requirements\nIn your summary, address key performance indicators and their trends, unexpected patterns, ")
	b.WriteString("business opportunities, risk factors, actionable recommendations, and short and long term predictions.\n\n")
	fmt.Fprintf(&b, responseFormat,
		"Brief explanation of what this visualization reveals",
		"Concise business analysis with key findings, trends, and actionable recommendations for stakeholders.")
	b.WriteString("\nUse exact field names from the dataset.\n")
	b.WriteString("NOTE: do not bold anything in summary.\n")
	return b.String(), nil
}

// FocusedPrompt steers the analysis toward the analyst notes and shows only
// the first few records.
func FocusedPrompt(ds *analysis.Dataset, notes string) (string, error) {
	sample, err := json.Marshal(ds.Head(focusedSampleRows))
	if err != nil {
		return "", fmt.Errorf("encode sample: %w", err)
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = "General business performance overview"
	}

	var b strings.Builder
	b.WriteString("You are an expert business intelligence analyst.\n\n")
	b.WriteString("# PRIMARY USER FOCUS\nThe following user notes represent the most important areas to focus on in your analysis.\n")
	b.WriteString("ALL visualizations and insights MUST directly address these priorities:\n")
	fmt.Fprintf(&b, "\"\"\"%s\"\"\"\n\n", notes)
	b.WriteString("# DATASET\nAnalyze this dataset with specific attention to elements related to the user focus above.\n")
	fmt.Fprintf(&b, "First %d records:\n```json\n", focusedSampleRows)
	b.Write(sample)
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "There are %d records in the full dataset.\n\n", ds.Len())
	writeColumns(&b, ds)
	b.WriteString("# REQUIRED OUTPUTS\n")
	b.WriteString("1. Visualization Recommendations: 4-6 visualizations that specifically address the user's focus areas.\n")
	b.WriteString("2. Business Summary: analysis of key findings related to the user's notes (300-500 words).\n\n")
	b.WriteString("## Visualization Requirements\nFor each visualization, include:\n")
	fmt.Fprintf(&b, "- The most appropriate chart type (%s)\n", chartTypeList())
	b.WriteString("- Meaningful axis selections or category/value pairs\n")
	b.WriteString("- A business-focused title that communicates the insight\n")
	b.WriteString("- A 2-3 sentence insight on what the chart reveals and how it addresses the user's focus areas\n\n")
	b.WriteString("## Business Summary Requirements\nAddress the user's focus areas with actionable recommendations in a professional, executive-friendly style.\n\n")
	fmt.Fprintf(&b, responseFormat,
		"Brief explanation of what this visualization reveals and its business implications",
		"Comprehensive business analysis with key findings, trends, and actionable recommendations. 300-500 words.")
	fmt.Fprintf(&b, "\nREMEMBER: Focus primarily on addressing \"\"\"%s\"\"\" in all your analysis and recommendations.\n", notes)
	b.WriteString("NOTE: Be precise in your field selections - use exact field names from the dataset.\n")
	b.WriteString("NOTE: do not bold anything in summary.\n")
	return b.String(), nil
}

// writeColumns lists every column with its inferred type.
func writeColumns(b *strings.Builder, ds *analysis.Dataset) {
	desc := ds.Describe()
	if len(desc.ColumnNames) == 0 {
		return
	}
	b.WriteString("# COLUMNS\n")
	for _, p := range ds.Profile() {
		typ := desc.ColumnTypes[p.ColumnName]
		notes := []string{typ}
		if p.NullRate > 0 {
			notes = append(notes, fmt.Sprintf("%.0f%% missing", p.NullRate*100))
		}
		if p.IsIdentifier && typ == analysis.TypeString {
			notes = append(notes, "identifier")
		}
		fmt.Fprintf(b, "- %s (%s)\n", p.ColumnName, strings.Join(notes, ", "))
	}
	if len(desc.PotentialDates) > 0 {
		dates := append([]string(nil), desc.PotentialDates...)
		sort.Strings(dates)
		fmt.Fprintf(b, "Date-like columns: %s\n", strings.Join(dates, ", "))
		writeTrends(b, ds)
	}
	b.WriteString("\n")
}

// minTrendFit is the R-squared a linear trend needs to be mentioned.
const minTrendFit = 0.5

// writeTrends notes numeric columns that move steadily in row order.
func writeTrends(b *strings.Builder, ds *analysis.Dataset) {
	var notes []string
	for _, col := range ds.NumericColumns() {
		slope, r2, ok := ds.Trend(col)
		if !ok || r2 < minTrendFit || slope == 0 {
			continue
		}
		dir := "rising"
		if slope < 0 {
			dir = "falling"
		}
		notes = append(notes, fmt.Sprintf("%s %s (r2=%.2f)", col, dir, r2))
	}
	if len(notes) > 0 {
		fmt.Fprintf(b, "Steady trends in row order: %s\n", strings.Join(notes, "; "))
	}
}
