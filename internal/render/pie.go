package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"insightviz/internal/analysis"
	"insightviz/internal/models"

	"github.com/disintegration/imaging"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var errNoPositiveSlices = errors.New("pie chart needs at least one positive value")

func drawPie(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	vals, err := ds.Floats(spec.Values)
	if err != nil {
		return nil, err
	}
	keys, present := categoryKeys(ds, spec.Labels)
	slices := pieSlices(groupSum(keys, present, vals), ds.Distinct(spec.Labels))

	var total float64
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total <= 0 {
		return nil, errNoPositiveSlices
	}

	fills := t.PieColors(len(slices))
	values := make([]chart.Value, 0, len(slices))
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: s.Value,
			Label: fmt.Sprintf("%s %.1f%%", s.Label, s.Value/total*100),
			Style: chart.Style{
				FillColor:   toDrawing(fills[i]),
				FontColor:   toDrawing(t.SliceText),
				StrokeColor: toDrawing(t.canvasNRGBA()),
				StrokeWidth: 1,
			},
		})
	}

	pie := chart.PieChart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontColor: toDrawing(t.Foreground), FontSize: 14},
		Width:      int(chartWidth.Dots(float64(t.DPI))),
		Height:     int(chartHeight.Dots(float64(t.DPI))),
		DPI:        float64(t.DPI),
		Background: chart.Style{FillColor: toDrawing(t.canvasNRGBA())},
		Canvas:     chart.Style{FillColor: toDrawing(t.canvasNRGBA())},
		Values:     values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie: %w", err)
	}
	return imaging.Decode(&buf)
}

// canvasNRGBA is canvasColor as a concrete color. go-chart treats the zero
// color as unset, so transparency keeps a white base.
func (t Theme) canvasNRGBA() color.NRGBA {
	if t.Transparent {
		return color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0}
	}
	return t.Background
}

func toDrawing(c color.NRGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
