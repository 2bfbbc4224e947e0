package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

const savedResponse = "Here is the analysis:\n" +
	`{"suggestions":[{"type":"bar","x":"branch","y":"total","title":"Revenue by Branch"},` +
	`{"type":"scatter","x":"nonexistent_col","y":"total","title":"Ghost"}],` +
	`"summary":"Branch A should extend hours."}` + "\nThanks!"

func writeInputs(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "sales.csv")
	csv := "date,branch,total\n2024-01-01,A,10.5\n2024-01-02,B,20\n2024-01-03,A,7.25\n"
	if err := os.WriteFile(data, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	resp := filepath.Join(dir, "response.txt")
	if err := os.WriteFile(resp, []byte(savedResponse), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, data, resp
}

func TestRunRenderZip(t *testing.T) {
	dir, data, resp := writeInputs(t)
	out := filepath.Join(dir, "charts.zip")

	if err := runRender(context.Background(), data, resp, "zip", out); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var got []string
	for _, f := range zr.File {
		got = append(got, f.Name)
	}
	if len(got) != 2 || got[0] != "Revenue_by_Branch.png" || got[1] != "summary.txt" {
		t.Fatalf("entries = %v", got)
	}
}

func TestRunRenderPDF(t *testing.T) {
	dir, data, resp := writeInputs(t)
	out := filepath.Join(dir, "report.pdf")

	if err := runRender(context.Background(), data, resp, "PDF", out); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestRunRenderUnknownFormat(t *testing.T) {
	dir, data, resp := writeInputs(t)
	if err := runRender(context.Background(), data, resp, "docx", filepath.Join(dir, "x")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
