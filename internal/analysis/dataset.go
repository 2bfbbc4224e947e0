package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Dataset is an ordered, read-only set of records. Columns are discovered in
// first-appearance order; any record may be missing any column.
type Dataset struct {
	records []map[string]interface{}
	columns []string
	index   map[string]int
}

// NewDataset frames records without copying them. Callers must not mutate the
// records afterwards.
func NewDataset(records []map[string]interface{}) *Dataset {
	return NewDatasetWithColumns(records, nil)
}

// NewDatasetWithColumns is NewDataset with a known leading column order, as
// given by a file header. Columns not listed are appended as discovered.
func NewDatasetWithColumns(records []map[string]interface{}, columns []string) *Dataset {
	ds := &Dataset{
		records: records,
		index:   make(map[string]int),
	}
	for _, c := range columns {
		if _, seen := ds.index[c]; c == "" || seen {
			continue
		}
		ds.index[c] = len(ds.columns)
		ds.columns = append(ds.columns, c)
	}
	for _, row := range records {
		// Map iteration order is random, so new keys in a row are sorted to keep
		// column order stable across runs.
		var fresh []string
		for k := range row {
			if _, seen := ds.index[k]; !seen {
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		for _, k := range fresh {
			ds.index[k] = len(ds.columns)
			ds.columns = append(ds.columns, k)
		}
	}
	return ds
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Columns returns the column names in discovery order
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasColumn reports whether any record carries the column
func (d *Dataset) HasColumn(name string) bool {
	if name == "" {
		return false
	}
	_, ok := d.index[name]
	return ok
}

// Head returns up to n leading records
func (d *Dataset) Head(n int) []map[string]interface{} {
	if n > len(d.records) {
		n = len(d.records)
	}
	return d.records[:n]
}

// Records returns all records
func (d *Dataset) Records() []map[string]interface{} {
	return d.records
}

// Values returns the raw value of col for every record, nil where missing.
func (d *Dataset) Values(col string) []interface{} {
	out := make([]interface{}, len(d.records))
	for i, row := range d.records {
		out[i] = row[col]
	}
	return out
}

// Strings returns the display form of col for every record. Missing values
// are returned as empty strings.
func (d *Dataset) Strings(col string) []string {
	out := make([]string, len(d.records))
	for i, row := range d.records {
		out[i] = FormatValue(row[col])
	}
	return out
}

// Floats returns col as numbers. Missing or empty values become NaN; any
// other value that is not numeric is an error.
func (d *Dataset) Floats(col string) ([]float64, error) {
	out := make([]float64, len(d.records))
	for i, row := range d.records {
		v, ok, err := toFloat(row[col])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", col, i, err)
		}
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// Distinct counts distinct non-missing display values in col
func (d *Dataset) Distinct(col string) int {
	seen := make(map[string]struct{})
	for _, row := range d.records {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		seen[FormatValue(v)] = struct{}{}
	}
	return len(seen)
}

// FormatValue renders a scalar the way it should appear on an axis or label.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// toFloat coerces a scalar to float64. ok is false for missing values.
func toFloat(v interface{}) (f float64, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return val, true, nil
	case float32:
		return float64(val), true, nil
	case int:
		return float64(val), true, nil
	case int32:
		return float64(val), true, nil
	case int64:
		return float64(val), true, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("not numeric: %q", val.String())
		}
		return f, true, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not numeric: %q", val)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("not numeric: %v (%T)", val, val)
	}
}
