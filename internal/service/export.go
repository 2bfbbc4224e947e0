package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"insightviz/internal/analysis"
	"insightviz/internal/logging"
	"insightviz/internal/models"
	"insightviz/internal/render"

	"github.com/klauspost/compress/zip"
)

// SummaryFile is the archive entry holding the model summary.
const SummaryFile = "summary.txt"

// RenderFunc draws one chart. render.Render satisfies it.
type RenderFunc func(ds *analysis.Dataset, spec models.ChartSpec, theme render.Theme) (*render.RenderedChart, error)

// ExportService packages rendered charts into a zip archive
type ExportService struct {
	render RenderFunc
}

// NewExportService creates an export service. A nil fn uses render.Render.
func NewExportService(fn RenderFunc) *ExportService {
	if fn == nil {
		fn = render.Render
	}
	return &ExportService{render: fn}
}

// GenerateZip renders every suggestion with the dark theme and writes the
// resulting PNGs plus summary.txt into one archive. Charts that are skipped or
// fail to draw are logged and left out. Only archive errors are returned.
func (s *ExportService) GenerateZip(ctx context.Context, ds *analysis.Dataset, suggestions []models.ChartSpec, summary string) ([]byte, error) {
	start := time.Now()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	written := 0
	used := make(map[string]bool)
	for i, spec := range suggestions {
		chart, err := s.render(ds, spec, render.DarkTheme())
		if err != nil || chart == nil || chart.Placeholder {
			logChartFailure(ctx, i, spec, err)
			continue
		}

		name := uniqueName(used, EntryName(spec.Title, i))
		if err := writeEntry(zw, name, chart.PNG); err != nil {
			return nil, err
		}
		written++
	}

	if err := writeEntry(zw, SummaryFile, []byte(summary)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	logging.Info().
		Add(logging.Component("export")).
		Add(logging.FromContext(ctx)).
		Add(logging.Count("charts", written)).
		Add(logging.Count("suggestions", len(suggestions))).
		Add(logging.Duration(time.Since(start))).
		Msg("chart archive built")
	return buf.Bytes(), nil
}

var entryReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// EntryName is the archive file name for the chart at index i.
func EntryName(title string, i int) string {
	if title == "" {
		return fmt.Sprintf("graph_%d.png", i)
	}
	return entryReplacer.Replace(title) + ".png"
}

// uniqueName suffixes repeated names so no entry is shadowed. Every name
// handed out is recorded, suffixed ones included.
func uniqueName(used map[string]bool, name string) string {
	base := strings.TrimSuffix(name, ".png")
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s_%d.png", base, n)
	}
	used[name] = true
	return name
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func logChartFailure(ctx context.Context, i int, spec models.ChartSpec, err error) {
	level := logging.Error
	msg := "chart failed to draw"
	if errors.Is(err, render.ErrSkipped) {
		level = logging.Warn
		msg = "chart skipped"
	}
	level().Add(logging.Component("export")).
		Add(logging.FromContext(ctx)).
		Add(logging.Count("index", i)).
		Add(logging.Chart(spec.Title)).
		Add(logging.ChartKind(string(spec.Type))).
		Add(logging.ErrorField(err)).
		Msg(msg)
}
