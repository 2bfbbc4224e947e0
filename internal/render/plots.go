package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"insightviz/internal/analysis"
	"insightviz/internal/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var errNoRows = errors.New("no plottable rows")

// newPlot creates a themed plot with the title and axis labels set.
func newPlot(title, xLabel, yLabel string, t Theme) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Color = t.Foreground
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)

	if t.Transparent {
		p.BackgroundColor = color.Transparent
	} else {
		p.BackgroundColor = t.Background
	}

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Color = t.Foreground
		ax.Label.TextStyle.Color = t.Foreground
		ax.Tick.Color = t.Foreground
		ax.Tick.Label.Color = t.Foreground
	}
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// rasterize draws p onto a theme-colored canvas of the given size.
func rasterize(p *plot.Plot, t Theme, w, h vg.Length) image.Image {
	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(t.DPI),
		vgimg.UseBackgroundColor(t.canvasColor()),
	)
	p.Draw(draw.New(c))
	return c.Image()
}

func rotateX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}

// applyXAxis sets ticks for date and categorical axes and rotates crowded ones.
func applyXAxis(p *plot.Plot, ax xAxis) {
	switch ax.Kind {
	case axisDate:
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	case axisCategory:
		ticks := make([]plot.Tick, len(ax.Categories))
		for i, c := range ax.Categories {
			ticks[i] = plot.Tick{Value: float64(i), Label: c}
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
		if len(ax.Categories) == 1 {
			p.X.Min, p.X.Max = -1, 1
		}
	}
	if ax.Distinct > rotateAfter {
		rotateX(p)
	}
}

// xyData loads x, y and optionally a third numeric column as points.
func xyData(ds *analysis.Dataset, spec models.ChartSpec, zCol string, sortX bool) (xAxis, []point, error) {
	ax, err := buildXAxis(ds, spec.X)
	if err != nil {
		return ax, nil, err
	}
	ys, err := ds.Floats(spec.Y)
	if err != nil {
		return ax, nil, err
	}
	var zs []float64
	if zCol != "" {
		if zs, err = ds.Floats(zCol); err != nil {
			return ax, nil, err
		}
	}
	pts := pairPoints(ax, ys, zs, sortX)
	if len(pts) == 0 {
		return ax, nil, errNoRows
	}
	return ax, pts, nil
}

func toXYs(pts []point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X, xys[i].Y = p.X, p.Y
	}
	return xys
}

func drawScatter(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	ax, pts, err := xyData(ds, spec, "", false)
	if err != nil {
		return nil, err
	}
	p := newPlot(spec.Title, spec.X, spec.Y, t)

	s, err := plotter.NewScatter(toXYs(pts))
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = t.Accent
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)

	applyXAxis(p, ax)
	return rasterize(p, t, chartWidth, chartHeight), nil
}

func drawLine(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	ax, pts, err := xyData(ds, spec, "", true)
	if err != nil {
		return nil, err
	}
	p := newPlot(spec.Title, spec.X, spec.Y, t)

	l, s, err := plotter.NewLinePoints(toXYs(pts))
	if err != nil {
		return nil, err
	}
	l.Color = t.Accent
	l.Width = vg.Points(1.5)
	s.GlyphStyle.Color = t.Accent
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(l, s)

	applyXAxis(p, ax)
	return rasterize(p, t, chartWidth, chartHeight), nil
}

func drawArea(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	ax, pts, err := xyData(ds, spec, "", true)
	if err != nil {
		return nil, err
	}
	p := newPlot(spec.Title, spec.X, spec.Y, t)

	l, err := plotter.NewLine(toXYs(pts))
	if err != nil {
		return nil, err
	}
	l.FillColor = withAlpha(t.Accent, 153)
	l.Color = withAlpha(t.Accent, 153)
	p.Add(l)
	// Fill reaches the bottom of the data area, so keep zero in range
	if p.Y.Min > 0 {
		p.Y.Min = 0
	}

	applyXAxis(p, ax)
	return rasterize(p, t, chartWidth, chartHeight), nil
}

func drawBubble(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	ax, pts, err := xyData(ds, spec, spec.Size, false)
	if err != nil {
		return nil, err
	}
	p := newPlot(spec.Title, spec.X, spec.Y, t)

	s, err := plotter.NewScatter(toXYs(pts))
	if err != nil {
		return nil, err
	}
	fill := withAlpha(t.Accent, 153)
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  fill,
			Shape:  draw.CircleGlyph{},
			Radius: bubbleRadius(pts[i].Z),
		}
	}
	p.Add(s)

	applyXAxis(p, ax)
	return rasterize(p, t, chartWidth, chartHeight), nil
}

// bubbleRadius converts a size value to a glyph radius so that the glyph
// area in square points is size*20.
func bubbleRadius(size float64) vg.Length {
	if size <= 0 || math.IsInf(size, 0) {
		return 0
	}
	return vg.Points(math.Sqrt(size * 20 / math.Pi))
}

func drawBar(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	ys, err := ds.Floats(spec.Y)
	if err != nil {
		return nil, err
	}
	keys, present := categoryKeys(ds, spec.X)
	groups := groupSum(keys, present, ys)
	if len(groups) == 0 {
		return nil, errNoRows
	}

	labels := make([]string, len(groups))
	values := make(plotter.Values, len(groups))
	for i, g := range groups {
		labels[i], values[i] = g.Label, g.Value
	}

	horizontal, rotated := barLayout(ds, spec)
	p := newPlot(spec.Title, spec.X, spec.Y, t)
	if horizontal {
		p.X.Label.Text, p.Y.Label.Text = spec.Y, spec.X
	}

	span := chartWidth
	if horizontal {
		span = chartHeight
	}
	bars, err := plotter.NewBarChart(values, barWidth(len(groups), span))
	if err != nil {
		return nil, err
	}
	bars.Color = t.Accent
	bars.LineStyle.Width = 0
	bars.Horizontal = horizontal
	p.Add(bars)

	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
		if rotated {
			rotateX(p)
		}
	}
	return rasterize(p, t, chartWidth, chartHeight), nil
}

func barWidth(n int, span vg.Length) vg.Length {
	w := span * 0.6 / vg.Length(n)
	if max := vg.Points(40); w > max {
		return max
	}
	return w
}

func drawHist(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	all, err := ds.Floats(spec.X)
	if err != nil {
		return nil, err
	}
	var vals plotter.Values
	for _, v := range all {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, errNoRows
	}

	p := newPlot(spec.Title, spec.X, spec.Y, t)
	h, err := plotter.NewHist(vals, histBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = t.Histogram
	h.LineStyle.Color = t.Histogram
	p.Add(h)
	return rasterize(p, t, chartWidth, chartHeight), nil
}

func drawBox(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	ys, err := ds.Floats(spec.Y)
	if err != nil {
		return nil, err
	}
	keys, present := categoryKeys(ds, spec.X)
	names, groups := boxGroups(keys, present, ys)
	if len(names) == 0 {
		return nil, errNoRows
	}

	p := newPlot(spec.Title, spec.X, spec.Y, t)
	width := barWidth(len(names), chartWidth)
	for i, name := range names {
		b, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(groups[name]))
		if err != nil {
			return nil, fmt.Errorf("box %q: %w", name, err)
		}
		b.BoxStyle.Color = t.Foreground
		b.WhiskerStyle.Color = t.Foreground
		b.MedianStyle.Color = t.Accent
		b.MedianStyle.Width = vg.Points(2)
		b.GlyphStyle.Color = t.Foreground
		p.Add(b)
	}
	p.NominalX(names...)
	rotateX(p)
	return rasterize(p, t, chartWidth, chartHeight), nil
}
