package render

import (
	"fmt"
	"math"
	"sort"

	"insightviz/internal/analysis"
	"insightviz/internal/models"
)

const (
	pieMaxSlices   = 8
	pieTopSlices   = 7
	pieOtherLabel  = "Other"
	horizontalBars = 10
	rotateAfter    = 5
	histBins       = 10
)

// category is one group of a categorical column with its summed measure.
type category struct {
	Label string
	Value float64
}

// groupSum sums vals per key in first-seen key order. Rows with a missing key
// or a NaN value are ignored.
func groupSum(keys []string, present []bool, vals []float64) []category {
	idx := make(map[string]int)
	var out []category
	for i, k := range keys {
		if !present[i] || math.IsNaN(vals[i]) {
			continue
		}
		j, ok := idx[k]
		if !ok {
			j = len(out)
			idx[k] = j
			out = append(out, category{Label: k})
		}
		out[j].Value += vals[i]
	}
	return out
}

// pieSlices folds grouped values into at most eight slices: with more than
// eight distinct labels the seven largest are kept and the rest summed into
// "Other". distinct counts labels whose values are all missing too. Slices are
// ordered by label.
func pieSlices(groups []category, distinct int) []category {
	if distinct > pieMaxSlices && len(groups) > pieTopSlices {
		ranked := make([]category, len(groups))
		copy(ranked, groups)
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Value != ranked[j].Value {
				return ranked[i].Value > ranked[j].Value
			}
			return ranked[i].Label < ranked[j].Label
		})

		merged := make(map[string]float64, pieTopSlices+1)
		for _, c := range ranked[:pieTopSlices] {
			merged[c.Label] += c.Value
		}
		for _, c := range ranked[pieTopSlices:] {
			merged[pieOtherLabel] += c.Value
		}
		groups = groups[:0:0]
		for label, v := range merged {
			groups = append(groups, category{Label: label, Value: v})
		}
	} else {
		groups = append([]category(nil), groups...)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	return groups
}

// barLayout decides bar orientation and x tick rotation from the number of
// distinct x values, including categories with no usable measure.
func barLayout(ds *analysis.Dataset, spec models.ChartSpec) (horizontal, rotated bool) {
	n := ds.Distinct(spec.X)
	if n > horizontalBars {
		return true, false
	}
	return false, n > rotateAfter
}

// categoryKeys returns the display value of col per row and whether it is set.
func categoryKeys(ds *analysis.Dataset, col string) ([]string, []bool) {
	raw := ds.Values(col)
	keys := make([]string, len(raw))
	present := make([]bool, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		keys[i] = analysis.FormatValue(v)
		present[i] = true
	}
	return keys, present
}

type axisKind int

const (
	axisNumeric axisKind = iota
	axisDate
	axisCategory
)

// xAxis is a column projected onto plot coordinates. Pos is NaN where the
// row has no usable value.
type xAxis struct {
	Kind       axisKind
	Pos        []float64
	Categories []string
	Distinct   int
}

func buildXAxis(ds *analysis.Dataset, col string) (xAxis, error) {
	ax := xAxis{Distinct: ds.Distinct(col)}

	switch ds.ColumnType(col) {
	case analysis.TypeInt, analysis.TypeFloat:
		pos, err := ds.Floats(col)
		if err != nil {
			return ax, err
		}
		ax.Kind, ax.Pos = axisNumeric, pos
	case analysis.TypeDate:
		ax.Kind = axisDate
		ax.Pos = make([]float64, ds.Len())
		for i, v := range ds.Values(col) {
			ax.Pos[i] = math.NaN()
			if t, ok := analysis.ParseDate(v); ok {
				ax.Pos[i] = float64(t.Unix())
			}
		}
	default:
		ax.Kind = axisCategory
		keys, present := categoryKeys(ds, col)
		idx := make(map[string]int)
		ax.Pos = make([]float64, len(keys))
		for i, k := range keys {
			if !present[i] {
				ax.Pos[i] = math.NaN()
				continue
			}
			j, ok := idx[k]
			if !ok {
				j = len(ax.Categories)
				idx[k] = j
				ax.Categories = append(ax.Categories, k)
			}
			ax.Pos[i] = float64(j)
		}
	}
	return ax, nil
}

// point pairs a projected x with a measure and an optional third value.
type point struct {
	X, Y, Z float64
}

// pairPoints zips x and y dropping rows where either is missing. Sorted by x
// when sortX is set and the axis is ordered.
func pairPoints(ax xAxis, ys, zs []float64, sortX bool) []point {
	var pts []point
	for i := range ax.Pos {
		if math.IsNaN(ax.Pos[i]) || math.IsNaN(ys[i]) {
			continue
		}
		p := point{X: ax.Pos[i], Y: ys[i]}
		if zs != nil {
			if math.IsNaN(zs[i]) {
				continue
			}
			p.Z = zs[i]
		}
		pts = append(pts, p)
	}
	if sortX && ax.Kind != axisCategory {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	}
	return pts
}

// correlationMatrix computes pairwise Pearson coefficients over cols.
func correlationMatrix(ds *analysis.Dataset, cols []string) ([][]float64, error) {
	m := make([][]float64, len(cols))
	for i := range cols {
		m[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r, err := ds.Correlation(cols[i], cols[j])
			if err != nil {
				return nil, fmt.Errorf("correlate %s/%s: %w", cols[i], cols[j], err)
			}
			m[i][j], m[j][i] = r, r
		}
	}
	return m, nil
}

// boxGroups collects numeric y per category of x, categories sorted.
func boxGroups(keys []string, present []bool, ys []float64) ([]string, map[string][]float64) {
	groups := make(map[string][]float64)
	for i, k := range keys {
		if !present[i] || math.IsNaN(ys[i]) {
			continue
		}
		groups[k] = append(groups[k], ys[i])
	}
	names := make([]string, 0, len(groups))
	for k := range groups {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, groups
}
