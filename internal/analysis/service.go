package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"insightviz/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column type names
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeDate   = "date"
	TypeString = "string"
)

// dateLayouts are tried in order; month-first wins for ambiguous slashes.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a date-like scalar
func ParseDate(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, f := range dateLayouts {
			if t, err := time.Parse(f, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ColumnType infers the type of col from every non-empty value. A column is
// numeric only if all of its values are numeric.
func (d *Dataset) ColumnType(col string) string {
	isInt, isFloat, isDate := true, true, true
	found := false

	for _, row := range d.records {
		val, ok := row[col]
		if !ok || val == nil {
			continue
		}
		if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		found = true

		switch inferTypeFromValue(val) {
		case TypeInt:
			isDate = false
		case TypeFloat:
			isInt = false
			isDate = false
		case TypeDate:
			isInt = false
			isFloat = false
		default:
			return TypeString
		}
	}

	switch {
	case !found:
		return TypeString
	case isInt:
		return TypeInt
	case isFloat:
		return TypeFloat
	case isDate:
		return TypeDate
	}
	return TypeString
}

// IsNumeric reports whether col holds only numbers
func (d *Dataset) IsNumeric(col string) bool {
	t := d.ColumnType(col)
	return t == TypeInt || t == TypeFloat
}

// NumericColumns returns the numeric columns in column order
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, c := range d.columns {
		if d.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// Describe summarizes column names and types for prompting
func (d *Dataset) Describe() models.DataAnalysisResult {
	result := models.DataAnalysisResult{
		ColumnNames:      d.Columns(),
		ColumnTypes:      make(map[string]string),
		PotentialIDs:     []string{},
		PotentialDates:   []string{},
		PotentialAmounts: []string{},
		NumRows:          d.Len(),
		NumColumns:       len(d.columns),
	}

	for _, colName := range d.columns {
		colType := d.ColumnType(colName)
		result.ColumnTypes[colName] = colType
		colLower := strings.ToLower(colName)

		if colType == TypeInt || colType == TypeFloat {
			result.HasNumeric = true
			if containsAny(colLower, []string{"id", "number", "code", "key"}) {
				result.PotentialIDs = append(result.PotentialIDs, colName)
			}
			if containsAny(colLower, []string{"amount", "price", "cost", "revenue", "salary", "total"}) {
				result.PotentialAmounts = append(result.PotentialAmounts, colName)
			}
		} else if colType == TypeDate {
			result.HasDates = true
			result.PotentialDates = append(result.PotentialDates, colName)
		} else {
			result.HasText = true
			// Name implies a date even if the values did not parse
			if containsAny(colLower, []string{"date", "time", "timestamp"}) {
				result.PotentialDates = append(result.PotentialDates, colName)
				result.HasDates = true
			}
		}
	}

	return result
}

// DateRange returns the earliest and latest dates in col. ok is false when the
// column has no values or any value fails to parse.
func (d *Dataset) DateRange(col string) (min, max time.Time, ok bool) {
	for _, row := range d.records {
		val, present := row[col]
		if !present || val == nil {
			continue
		}
		t, parsed := ParseDate(val)
		if !parsed {
			return time.Time{}, time.Time{}, false
		}
		if !ok || t.Before(min) {
			min = t
		}
		if !ok || t.After(max) {
			max = t
		}
		ok = true
	}
	return min, max, ok
}

// Sum adds up the numeric values of col, skipping missing ones
func (d *Dataset) Sum(col string) (float64, error) {
	vals, err := d.present(col)
	if err != nil {
		return 0, err
	}
	return floats.Sum(vals), nil
}

// Mean averages the numeric values of col, skipping missing ones
func (d *Dataset) Mean(col string) (float64, error) {
	vals, err := d.present(col)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(vals, nil), nil
}

// Correlation returns the Pearson correlation of two numeric columns over the
// rows where both are present. NaN when fewer than two pairs or zero variance.
func (d *Dataset) Correlation(colA, colB string) (float64, error) {
	a, err := d.Floats(colA)
	if err != nil {
		return 0, err
	}
	b, err := d.Floats(colB)
	if err != nil {
		return 0, err
	}
	var xs, ys []float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN(), nil
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN(), nil
	}
	return stat.Correlation(xs, ys, nil), nil
}

func (d *Dataset) present(col string) ([]float64, error) {
	all, err := d.Floats(col)
	if err != nil {
		return nil, err
	}
	vals := all[:0]
	for _, v := range all {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals, nil
}

func inferTypeFromValue(v interface{}) string {
	switch val := v.(type) {
	case int, int32, int64:
		return TypeInt
	case float32:
		return TypeFloat
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return TypeInt
		}
		return TypeFloat
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return TypeInt
		}
		if _, err := val.Float64(); err == nil {
			return TypeFloat
		}
		return TypeString
	case time.Time:
		return TypeDate
	case string:
		s := strings.TrimSpace(val)
		if _, err := strconv.Atoi(s); err == nil {
			return TypeInt
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return TypeFloat
		}
		if _, ok := ParseDate(s); ok {
			return TypeDate
		}
	}
	return TypeString
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
