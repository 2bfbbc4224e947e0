package analysis

import (
	"math"
	"testing"
)

func TestProfileColumn(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"id": "a", "city": "Yangon"},
		{"id": "b", "city": "Yangon"},
		{"id": "c", "city": "NULL"},
		{"id": "d"},
	})

	id := ds.ProfileColumn("id")
	if id.NonNullRows != 4 || id.DistinctCount != 4 || !id.IsIdentifier {
		t.Fatalf("id profile = %+v", id)
	}
	if math.Abs(id.Entropy-2) > 1e-9 {
		t.Fatalf("entropy of 4 unique values = %v, want 2", id.Entropy)
	}

	city := ds.ProfileColumn("city")
	if city.NonNullRows != 2 || city.NullRate != 0.5 {
		t.Fatalf("city profile = %+v", city)
	}
	if city.DistinctCount != 1 || city.Entropy != 0 || city.IsIdentifier {
		t.Fatalf("city profile = %+v", city)
	}
}

func TestProfileFollowsColumnOrder(t *testing.T) {
	t.Parallel()

	ds := NewDatasetWithColumns([]map[string]interface{}{{"b": 1, "a": 2}}, []string{"b", "a"})
	profiles := ds.Profile()
	if len(profiles) != 2 || profiles[0].ColumnName != "b" || profiles[1].ColumnName != "a" {
		t.Fatalf("profiles = %+v", profiles)
	}
}

func TestTrend(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"y": 1.0, "flat": 5, "s": "a"},
		{"y": 3.0, "flat": 5, "s": "b"},
		{"flat": 5},
		{"y": 7.0, "flat": 5},
	})

	slope, r2, ok := ds.Trend("y")
	if !ok || math.Abs(slope-2) > 1e-9 || math.Abs(r2-1) > 1e-9 {
		t.Fatalf("Trend(y) = %v, %v, %v", slope, r2, ok)
	}
	if slope, r2, ok := ds.Trend("flat"); !ok || slope != 0 || r2 != 0 {
		t.Fatalf("Trend(flat) = %v, %v, %v", slope, r2, ok)
	}
	if _, _, ok := ds.Trend("s"); ok {
		t.Fatal("text column has no trend")
	}
}
