// Package report assembles the PDF business report.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"insightviz/internal/analysis"
	"insightviz/internal/logging"
	"insightviz/internal/models"
	"insightviz/internal/render"

	"github.com/go-pdf/fpdf"
)

// Report colors
var (
	colorNavy     = [3]int{0, 0, 128}
	colorDarkBlue = [3]int{0, 0, 139}
	colorLavender = [3]int{230, 230, 250}
	colorGrid     = [3]int{128, 128, 128}
	colorText     = [3]int{0, 0, 0}
)

// Letter page in points with one inch margins.
const (
	margin      = 72.0
	imageWidth  = 6 * 72.0
	imageHeight = 3 * 72.0
	labelWidth  = 2.5 * 72.0
	valueWidth  = 2.5 * 72.0
	rowHeight   = 24.0
	bodyLeading = 14.0
)

// RenderFunc draws one chart. render.Render satisfies it.
type RenderFunc func(ds *analysis.Dataset, spec models.ChartSpec, theme render.Theme) (*render.RenderedChart, error)

// Assembler builds the report document.
type Assembler struct {
	render RenderFunc
	now    func() time.Time
}

// NewAssembler creates an assembler. A nil fn uses render.Render.
func NewAssembler(fn RenderFunc) *Assembler {
	if fn == nil {
		fn = render.Render
	}
	return &Assembler{render: fn, now: time.Now}
}

// Build renders the report for ds, the suggestions and the summary and returns
// the PDF bytes. Individual chart failures never fail the document.
func (a *Assembler) Build(ctx context.Context, ds *analysis.Dataset, suggestions []models.ChartSpec, summary string) ([]byte, error) {
	start := time.Now()
	blocks := a.story(ctx, ds, suggestions, summary)

	pdf := layout(blocks)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}

	logging.Info().
		Add(logging.Component("report")).
		Add(logging.FromContext(ctx)).
		Add(logging.Count("charts", len(suggestions))).
		Add(logging.Count("pages", pdf.PageCount())).
		Add(logging.Duration(time.Since(start))).
		Msg("report built")
	return buf.Bytes(), nil
}

// layout writes blocks onto Letter pages. Errors are held by the returned
// document and surface from Output.
func layout(blocks []block) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator("insightviz", true)
	pdf.SetTitle(ReportTitle, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*margin
	images := 0

	for _, b := range blocks {
		switch b.kind {
		case blockTitle:
			pdf.SetFont("Helvetica", "B", 24)
			setText(pdf, colorText)
			pdf.CellFormat(0, 30, tr(b.text), "", 1, "C", false, 0, "")
			pdf.Ln(16)
		case blockDate:
			pdf.SetFont("Helvetica", "I", 10)
			setText(pdf, colorText)
			pdf.CellFormat(0, 12, tr(b.text), "", 1, "C", false, 0, "")
			pdf.Ln(24)
		case blockSection:
			pdf.Ln(12)
			pdf.SetFont("Helvetica", "B", 18)
			setText(pdf, colorNavy)
			pdf.CellFormat(0, 22, tr(b.text), "", 1, "L", false, 0, "")
			pdf.Ln(8)
		case blockChartTitle:
			pdf.Ln(12)
			pdf.SetFont("Helvetica", "B", 14)
			setText(pdf, colorDarkBlue)
			pdf.MultiCell(0, 17, tr(b.text), "", "L", false)
			pdf.Ln(6)
		case blockParagraph:
			pdf.SetFont("Helvetica", "", 11)
			setText(pdf, colorText)
			pdf.MultiCell(0, bodyLeading, tr(b.text), "", "J", false)
		case blockNote:
			pdf.SetFont("Helvetica", "", 10)
			setText(pdf, colorText)
			pdf.MultiCell(0, 12, tr(b.text), "", "L", false)
		case blockBullet:
			pdf.SetFont("Helvetica", "", 11)
			setText(pdf, colorText)
			pdf.SetX(margin + 5)
			pdf.CellFormat(15, 16, tr("•"), "", 0, "L", false, 0, "")
			pdf.MultiCell(contentWidth-20, 16, tr(b.text), "", "L", false)
		case blockTable:
			writeTable(pdf, tr, b.rows, margin+(contentWidth-labelWidth-valueWidth)/2)
		case blockImage:
			name := fmt.Sprintf("chart-%d", images)
			images++
			opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(b.png))
			pdf.ImageOptions(name, margin+(contentWidth-imageWidth)/2, -1, imageWidth, imageHeight, true, opts, 0, "")
		case blockSpacer:
			pdf.Ln(b.space)
		case blockPageBreak:
			pdf.AddPage()
		}
	}
	return pdf
}

// writeTable draws the overview rows: lavender labels on the left, values
// right aligned, grey grid inside a black box.
func writeTable(pdf *fpdf.Fpdf, tr func(string) string, rows []Row, x float64) {
	if len(rows) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	setText(pdf, colorText)
	pdf.SetFillColor(colorLavender[0], colorLavender[1], colorLavender[2])
	pdf.SetDrawColor(colorGrid[0], colorGrid[1], colorGrid[2])
	pdf.SetLineWidth(1)

	if _, pageHeight := pdf.GetPageSize(); pdf.GetY()+rowHeight*float64(len(rows)) > pageHeight-margin {
		pdf.AddPage()
	}
	top := pdf.GetY()
	for _, r := range rows {
		pdf.SetX(x)
		pdf.CellFormat(labelWidth, rowHeight, tr(r.Label), "1", 0, "LM", true, 0, "")
		pdf.CellFormat(valueWidth, rowHeight, tr(r.Value), "1", 1, "RM", false, 0, "")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.Rect(x, top, labelWidth+valueWidth, rowHeight*float64(len(rows)), "D")
}

func setText(pdf *fpdf.Fpdf, c [3]int) {
	pdf.SetTextColor(c[0], c[1], c[2])
}
