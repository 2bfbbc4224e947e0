package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// minTrendPoints is the fewest values a trend is fitted on.
const minTrendPoints = 3

// Trend fits a least-squares line to col against row position, skipping
// missing values. ok is false for non-numeric columns and short series.
func (d *Dataset) Trend(col string) (slope, rsquared float64, ok bool) {
	vals, err := d.Floats(col)
	if err != nil {
		return 0, 0, false
	}
	var xs, ys []float64
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, v)
	}
	if len(ys) < minTrendPoints {
		return 0, 0, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if stat.Variance(ys, nil) == 0 {
		return beta, 0, true
	}
	return beta, stat.RSquared(xs, ys, nil, alpha, beta), true
}
