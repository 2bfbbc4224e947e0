package report

import (
	"context"
	"errors"
	"fmt"

	"insightviz/internal/analysis"
	"insightviz/internal/logging"
	"insightviz/internal/models"
	"insightviz/internal/render"
)

// Report text that appears verbatim in the document.
const (
	ReportTitle       = "Business Intelligence Report"
	NoInsight         = "No specific insight provided."
	sectionSummary    = "Executive Summary"
	sectionOverview   = "Data Overview"
	sectionInsights   = "Key Business Insights"
	sectionRecommends = "Recommendations"
)

type blockKind int

const (
	blockTitle blockKind = iota
	blockDate
	blockSection
	blockChartTitle
	blockParagraph
	blockNote
	blockBullet
	blockTable
	blockImage
	blockSpacer
	blockPageBreak
)

// block is one element of the document flow, laid out top to bottom.
type block struct {
	kind  blockKind
	text  string
	rows  []Row
	png   []byte
	space float64
}

func spacer(pt float64) block { return block{kind: blockSpacer, space: pt} }

// story builds the ordered document flow. Charts are rendered here with the
// light theme.
func (a *Assembler) story(ctx context.Context, ds *analysis.Dataset, suggestions []models.ChartSpec, summary string) []block {
	s := []block{
		{kind: blockTitle, text: ReportTitle},
		{kind: blockDate, text: "Generated on " + a.now().Format("January 2, 2006")},
		{kind: blockSection, text: sectionSummary},
	}
	for _, p := range Paragraphs(summary) {
		s = append(s, block{kind: blockParagraph, text: p}, spacer(7.2))
	}
	s = append(s, spacer(10.8),
		block{kind: blockSection, text: sectionOverview},
		block{kind: blockTable, rows: Overview(ds)},
		spacer(21.6),
		block{kind: blockSection, text: sectionInsights},
		spacer(10.8),
	)

	n := len(suggestions)
	for i, spec := range suggestions {
		title := spec.Title
		if title == "" {
			title = fmt.Sprintf("Chart %d", i+1)
		}
		insight := spec.Insight
		if insight == "" {
			insight = NoInsight
		}
		s = append(s,
			block{kind: blockChartTitle, text: title},
			block{kind: blockParagraph, text: insight},
			spacer(10.8),
		)
		s = append(s, a.chartBlock(ctx, ds, spec, i))
		s = append(s, spacer(28.8))
		if breakAfter(i, n) {
			s = append(s, block{kind: blockPageBreak})
		}
	}

	if n > 0 {
		s = append(s,
			block{kind: blockPageBreak},
			block{kind: blockSection, text: sectionRecommends},
			spacer(14.4),
		)
		for _, rec := range Recommendations(summary, ds) {
			s = append(s, block{kind: blockBullet, text: rec}, spacer(7.2))
		}
	}
	return s
}

// chartBlock renders one suggestion. Skipped charts become a visible note;
// draw failures keep the placeholder image.
func (a *Assembler) chartBlock(ctx context.Context, ds *analysis.Dataset, spec models.ChartSpec, i int) block {
	chart, err := a.render(ds, spec, render.LightTheme())
	if err != nil {
		level := logging.Error
		if errors.Is(err, render.ErrSkipped) {
			level = logging.Warn
		}
		level().Add(logging.Component("report")).
			Add(logging.FromContext(ctx)).
			Add(logging.Count("index", i)).
			Add(logging.Chart(spec.Title)).
			Add(logging.ChartKind(string(spec.Type))).
			Add(logging.ErrorField(err)).
			Msg("error generating chart")
	}
	if chart == nil {
		msg := "chart could not be rendered"
		if err != nil {
			msg = err.Error()
		}
		return block{kind: blockNote, text: "Error generating chart: " + msg}
	}
	return block{kind: blockImage, png: chart.PNG}
}
