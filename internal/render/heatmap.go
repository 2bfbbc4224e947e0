package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"insightviz/internal/analysis"
	"insightviz/internal/models"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

const heatmapSteps = 32

// corrGrid exposes a correlation matrix as a plotter.GridXYZ with the first
// column drawn in the top row.
type corrGrid struct {
	m [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return len(g.m), len(g.m) }
func (g corrGrid) Z(c, r int) float64 { return g.m[len(g.m)-1-r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// shades is a light-to-dark violet palette.Palette.
type shades []color.Color

func (s shades) Colors() []color.Color { return s }

func violetShades(n int) shades {
	from, to := ramp[0], ramp[len(ramp)-1]
	out := make(shades, n)
	for i := range out {
		f := float64(i) / float64(n-1)
		out[i] = color.NRGBA{
			R: lerp(from.R, to.R, f),
			G: lerp(from.G, to.G, f),
			B: lerp(from.B, to.B, f),
			A: 0xFF,
		}
	}
	return out
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

func drawHeatmap(ds *analysis.Dataset, spec models.ChartSpec, t Theme) (image.Image, error) {
	cols := ds.NumericColumns()
	m, err := correlationMatrix(ds, cols)
	if err != nil {
		return nil, err
	}
	grid := corrGrid{m: m}

	p := newPlot(spec.Title, "", "", t)
	hm := plotter.NewHeatMap(grid, violetShades(heatmapSteps))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Transparent
	p.Add(hm)

	var (
		xys    plotter.XYs
		labels []string
		light  []bool
	)
	n := len(cols)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			z := grid.Z(c, r)
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			if math.IsNaN(z) {
				labels = append(labels, "")
			} else {
				labels = append(labels, fmt.Sprintf("%.2f", z))
			}
			light = append(light, math.IsNaN(z) || z < 0.2)
		}
	}
	ann, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, err
	}
	for i := range ann.TextStyle {
		ann.TextStyle[i].XAlign = text.XCenter
		ann.TextStyle[i].YAlign = text.YCenter
		ann.TextStyle[i].Font.Size = vg.Points(10)
		if light[i] {
			ann.TextStyle[i].Color = ramp[len(ramp)-1]
		} else {
			ann.TextStyle[i].Color = color.White
		}
	}
	p.Add(ann)

	rows := make([]string, n)
	for i, c := range cols {
		rows[n-1-i] = c
	}
	p.NominalX(cols...)
	p.NominalY(rows...)
	rotateX(p)

	return rasterize(p, t, chartWidth, heatmapHeight), nil
}
