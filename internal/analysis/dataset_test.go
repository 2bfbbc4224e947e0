package analysis

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestNewDatasetColumnOrder(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"b": 1, "a": 2},
		{"c": 3},
		{"a": 4, "d": 5},
	})

	want := []string{"a", "b", "c", "d"}
	if got := ds.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	if !ds.HasColumn("c") || ds.HasColumn("missing") || ds.HasColumn("") {
		t.Fatalf("HasColumn reported wrong membership")
	}
	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}
}

func TestNewDatasetWithColumnsKeepsHeaderOrder(t *testing.T) {
	t.Parallel()

	ds := NewDatasetWithColumns([]map[string]interface{}{
		{"zeta": "1", "alpha": "2", "extra": "x"},
	}, []string{"zeta", "alpha"})

	want := []string{"zeta", "alpha", "extra"}
	if got := ds.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
}

func TestFloats(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"v": json.Number("1.5")},
		{"v": "2"},
		{"v": ""},
		{},
		{"v": 4},
	})

	got, err := ds.Floats("v")
	if err != nil {
		t.Fatalf("Floats: %v", err)
	}
	if got[0] != 1.5 || got[1] != 2 || got[4] != 4 {
		t.Fatalf("unexpected values %v", got)
	}
	if !math.IsNaN(got[2]) || !math.IsNaN(got[3]) {
		t.Fatalf("missing values should be NaN, got %v", got)
	}

	bad := NewDataset([]map[string]interface{}{{"v": "abc"}})
	if _, err := bad.Floats("v"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestColumnType(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"id": json.Number("1"), "price": json.Number("9.5"), "date": "2024-01-03", "name": "a"},
		{"id": json.Number("2"), "price": json.Number("3"), "date": "2024-01-01", "name": "b"},
		{"id": json.Number("3"), "price": "", "date": "2024-01-02", "name": "7"},
	})

	tests := []struct {
		col  string
		want string
	}{
		{"id", TypeInt},
		{"price", TypeFloat},
		{"date", TypeDate},
		{"name", TypeString},
		{"absent", TypeString},
	}
	for _, tt := range tests {
		if got := ds.ColumnType(tt.col); got != tt.want {
			t.Errorf("ColumnType(%q) = %q, want %q", tt.col, got, tt.want)
		}
	}

	if got := ds.NumericColumns(); !reflect.DeepEqual(got, []string{"id", "price"}) {
		t.Errorf("NumericColumns() = %v", got)
	}

	desc := ds.Describe()
	if desc.NumRows != 3 || desc.NumColumns != 4 {
		t.Errorf("Describe counts = %d rows %d cols", desc.NumRows, desc.NumColumns)
	}
	if !desc.HasDates || !desc.HasNumeric || !desc.HasText {
		t.Errorf("Describe flags wrong: %+v", desc)
	}
	if !reflect.DeepEqual(desc.PotentialIDs, []string{"id"}) {
		t.Errorf("PotentialIDs = %v", desc.PotentialIDs)
	}
	if !reflect.DeepEqual(desc.PotentialAmounts, []string{"price"}) {
		t.Errorf("PotentialAmounts = %v", desc.PotentialAmounts)
	}
}

func TestDateRange(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"date": "2024-03-05"},
		{"date": "2024-01-01"},
		{"date": "2024-02-10T10:00:00"},
	})
	min, max, ok := ds.DateRange("date")
	if !ok {
		t.Fatal("expected a range")
	}
	if got := min.Format("2006-01-02"); got != "2024-01-01" {
		t.Errorf("min = %s", got)
	}
	if got := max.Format("2006-01-02"); got != "2024-03-05" {
		t.Errorf("max = %s", got)
	}

	broken := NewDataset([]map[string]interface{}{{"date": "2024-01-01"}, {"date": "soon"}})
	if _, _, ok := broken.DateRange("date"); ok {
		t.Error("unparsable value should fail the range")
	}
	if _, _, ok := broken.DateRange("nope"); ok {
		t.Error("absent column should fail the range")
	}
}

func TestAggregates(t *testing.T) {
	t.Parallel()

	ds := NewDataset([]map[string]interface{}{
		{"a": 1, "b": 2},
		{"a": 2, "b": 4},
		{"a": 3, "b": 6},
		{"a": nil, "b": 100},
	})

	sum, err := ds.Sum("a")
	if err != nil || sum != 6 {
		t.Fatalf("Sum = %v, %v", sum, err)
	}
	mean, err := ds.Mean("a")
	if err != nil || mean != 2 {
		t.Fatalf("Mean = %v, %v", mean, err)
	}
	r, err := ds.Correlation("a", "b")
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	if math.Abs(r-1) > 1e-9 {
		t.Fatalf("Correlation = %v, want 1", r)
	}

	flat := NewDataset([]map[string]interface{}{{"a": 1, "b": 1}, {"a": 2, "b": 1}})
	if r, _ := flat.Correlation("a", "b"); !math.IsNaN(r) {
		t.Fatalf("zero variance correlation = %v, want NaN", r)
	}
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"comma", "region,sales\nNorth,10\nSouth,20\n"},
		{"semicolon", "region;sales\nNorth;10\nSouth;20\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ds, err := LoadCSV([]byte(tt.raw))
			if err != nil {
				t.Fatalf("LoadCSV: %v", err)
			}
			if got := ds.Columns(); !reflect.DeepEqual(got, []string{"region", "sales"}) {
				t.Fatalf("Columns() = %v", got)
			}
			if ds.Len() != 2 {
				t.Fatalf("Len() = %d", ds.Len())
			}
			sum, err := ds.Sum("sales")
			if err != nil || sum != 30 {
				t.Fatalf("Sum = %v, %v", sum, err)
			}
		})
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	ds, err := LoadJSON(strings.NewReader(`[{"x": 1, "y": "a"}, {"x": 2.5}]`))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if _, ok := ds.Records()[0]["x"].(json.Number); !ok {
		t.Fatalf("numbers should decode as json.Number")
	}
	if ds.ColumnType("x") != TypeFloat {
		t.Fatalf("x type = %s", ds.ColumnType("x"))
	}

	if _, err := LoadJSON(strings.NewReader(`{"x": 1}`)); err == nil {
		t.Fatal("expected error for non-array input")
	}
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile("data.parquet"); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("LoadFile error = %v", err)
	}
}
