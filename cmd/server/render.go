package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"insightviz/internal/analysis"
	"insightviz/internal/llm"
	"insightviz/internal/logging"
	"insightviz/internal/report"
	"insightviz/internal/service"

	"github.com/spf13/cobra"
)

var (
	renderData        string
	renderSuggestions string
	renderFormat      string
	renderOut         string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Build the chart archive or PDF report from a saved model response",
	Long: `render packages a dataset (JSON, CSV or XLSX) with a saved model response
without calling the model. The response file may contain surrounding prose;
the JSON object inside it is extracted the same way the server does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		return runRender(cmd.Context(), renderData, renderSuggestions, renderFormat, renderOut)
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderData, "data", "", "dataset file (.json, .csv, .xlsx)")
	renderCmd.Flags().StringVar(&renderSuggestions, "suggestions", "", "saved model response")
	renderCmd.Flags().StringVar(&renderFormat, "format", "zip", "output format: zip or pdf")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output path (default generated_charts.zip or business_report.pdf)")
	_ = renderCmd.MarkFlagRequired("data")
	_ = renderCmd.MarkFlagRequired("suggestions")
}

func runRender(ctx context.Context, dataPath, suggestionsPath, format, out string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ds, err := analysis.LoadFile(dataPath)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(suggestionsPath)
	if err != nil {
		return fmt.Errorf("read suggestions: %w", err)
	}
	result := llm.Normalize(string(raw))

	var body []byte
	switch strings.ToLower(format) {
	case "zip":
		if out == "" {
			out = "generated_charts.zip"
		}
		body, err = service.NewExportService(nil).GenerateZip(ctx, ds, result.Suggestions, result.Summary)
	case "pdf":
		if out == "" {
			out = "business_report.pdf"
		}
		body, err = report.NewAssembler(nil).Build(ctx, ds, result.Suggestions, result.Summary)
	default:
		return fmt.Errorf("unknown format %q (use zip or pdf)", format)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logging.Info().
		Add(logging.Component("cli")).
		Add(logging.Str("out", out)).
		Add(logging.Count("records", ds.Len())).
		Add(logging.Count("suggestions", len(result.Suggestions))).
		Add(logging.Count("bytes", len(body))).
		Msg("render complete")
	return nil
}
