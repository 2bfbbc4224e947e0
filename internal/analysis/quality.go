package analysis

import (
	"math"
)

// ColumnProfile holds quality metrics for a column
type ColumnProfile struct {
	ColumnName      string  `json:"column_name"`
	TotalRows       int     `json:"total_rows"`
	NonNullRows     int     `json:"non_null_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	Entropy         float64 `json:"entropy"`
	IsIdentifier    bool    `json:"is_identifier"`
}

// nullMarkers are display values treated as missing.
var nullMarkers = map[string]bool{"": true, "null": true, "NULL": true, "None": true, "NaN": true}

// ProfileColumn analyzes quality metrics for a single column
func (d *Dataset) ProfileColumn(col string) ColumnProfile {
	profile := ColumnProfile{
		ColumnName: col,
		TotalRows:  len(d.records),
	}

	counts := make(map[string]int)
	nonNull := 0
	for _, row := range d.records {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		s := FormatValue(v)
		if nullMarkers[s] {
			continue
		}
		nonNull++
		counts[s]++
	}

	profile.NonNullRows = nonNull
	profile.DistinctCount = len(counts)
	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-nonNull) / float64(profile.TotalRows)
	}
	if nonNull > 0 {
		profile.UniquenessRatio = float64(profile.DistinctCount) / float64(nonNull)
	}
	profile.Entropy = entropy(counts, nonNull)

	// Nearly every value unique and almost nothing missing: an ID, not a category.
	profile.IsIdentifier = nonNull > 1 && profile.UniquenessRatio > 0.95 && profile.NullRate < 0.05
	return profile
}

// Profile profiles every column in column order.
func (d *Dataset) Profile() []ColumnProfile {
	profiles := make([]ColumnProfile, len(d.columns))
	for i, col := range d.columns {
		profiles[i] = d.ProfileColumn(col)
	}
	return profiles
}

// entropy computes Shannon entropy in bits
func entropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, n := range counts {
		if n > 0 {
			p := float64(n) / float64(total)
			e -= p * math.Log2(p)
		}
	}
	return e
}
