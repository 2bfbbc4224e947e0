package render

import (
	"bytes"
	"fmt"
	"image"

	"insightviz/internal/analysis"
	"insightviz/internal/models"

	"github.com/disintegration/imaging"
)

// RenderedChart is one encoded PNG ready for packaging.
type RenderedChart struct {
	Title       string
	Kind        models.ChartKind
	PNG         []byte
	Width       int
	Height      int
	Placeholder bool
}

type drawFunc func(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error)

type chartDef struct {
	required []string
	draw     drawFunc
}

var chartDefs = map[models.ChartKind]chartDef{
	models.ChartScatter: {required: []string{"x", "y"}, draw: drawScatter},
	models.ChartBar:     {required: []string{"x", "y"}, draw: drawBar},
	models.ChartLine:    {required: []string{"x", "y"}, draw: drawLine},
	models.ChartHist:    {required: []string{"x"}, draw: drawHist},
	models.ChartBox:     {required: []string{"x", "y"}, draw: drawBox},
	models.ChartPie:     {required: []string{"labels", "values"}, draw: drawPie},
	models.ChartArea:    {required: []string{"x", "y"}, draw: drawArea},
	models.ChartBubble:  {required: []string{"x", "y", "size"}, draw: drawBubble},
	models.ChartHeatmap: {draw: drawHeatmap},
}

// Render draws one suggestion against the dataset.
//
// Suggestions that cannot be interpreted (unknown type, missing field or
// column) return an error wrapping ErrSkipped and no chart. Failures while
// drawing return a placeholder chart together with a *DrawError.
func Render(ds *analysis.Dataset, spec models.ChartSpec, theme Theme) (*RenderedChart, error) {
	def, ok := chartDefs[spec.Type]
	if !ok {
		return nil, skip(spec, "unsupported chart type")
	}
	for _, name := range def.required {
		col := field(spec, name)
		if col == "" {
			return nil, skip(spec, "missing %q field", name)
		}
		if !ds.HasColumn(col) {
			return nil, skip(spec, "column %q not found", col)
		}
	}
	if spec.Type == models.ChartHeatmap && len(ds.NumericColumns()) < 2 {
		return nil, skip(spec, "heatmap needs at least two numeric columns")
	}

	img, err := safeDraw(def.draw, ds, spec, theme)
	if err != nil {
		derr := &DrawError{Kind: spec.Type, Title: spec.Title, Err: err}
		chart, perr := placeholder(spec, theme, err)
		if perr != nil {
			return nil, derr
		}
		return chart, derr
	}

	chart, err := encode(spec, crop(img, theme))
	if err != nil {
		return nil, &DrawError{Kind: spec.Type, Title: spec.Title, Err: err}
	}
	return chart, nil
}

// safeDraw turns panics inside the plotting libraries into errors
func safeDraw(fn drawFunc, ds *analysis.Dataset, spec models.ChartSpec, t Theme) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("panic while drawing: %v", r)
		}
	}()
	return fn(ds, spec, t)
}

func field(spec models.ChartSpec, name string) string {
	switch name {
	case "x":
		return spec.X
	case "y":
		return spec.Y
	case "labels":
		return spec.Labels
	case "values":
		return spec.Values
	case "size":
		return spec.Size
	}
	return ""
}

func encode(spec models.ChartSpec, img image.Image) (*RenderedChart, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	b := img.Bounds()
	return &RenderedChart{
		Title:  spec.Title,
		Kind:   spec.Type,
		PNG:    buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// crop trims the canvas to the drawn content plus a small margin.
func crop(img image.Image, t Theme) image.Image {
	b := img.Bounds()
	bg := t.canvasColor()
	br, bgc, bb, ba := bg.RGBA()

	content := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r == br && g == bgc && bl == bb && a == ba {
				continue
			}
			if t.Transparent && a == 0 {
				continue
			}
			content = content.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	if content.Empty() {
		return img
	}

	pad := t.DPI / 10
	return imaging.Crop(img, content.Inset(-pad).Intersect(b))
}
