package analysis

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are not json, csv or xlsx
var ErrUnsupportedFormat = errors.New("unsupported data format")

// LoadFile reads a dataset from disk, picking the parser by extension.
func LoadFile(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadJSON(f)
	case ".csv":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return LoadCSV(raw)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// LoadJSON decodes an array of objects. Numbers keep their literal form.
func LoadJSON(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return NewDataset(records), nil
}

// LoadCSV parses a header row plus records. Comma separated first, then
// semicolon when the header cannot be read or holds a single semicolon field.
func LoadCSV(raw []byte) (*Dataset, error) {
	headers, reader, err := csvHeaders(raw, ',')
	if err != nil || (len(headers) == 1 && strings.Contains(headers[0], ";")) {
		headers, reader, err = csvHeaders(raw, ';')
		if err != nil {
			return nil, fmt.Errorf("failed to read headers: %w", err)
		}
	}

	var records []map[string]interface{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows
			continue
		}
		records = append(records, rowToRecord(headers, record))
	}
	return NewDatasetWithColumns(records, headers), nil
}

// LoadXLSX reads the first sheet of a workbook, header row first.
func LoadXLSX(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return NewDataset(nil), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return NewDataset(nil), nil
	}

	headers := cleanHeaders(rows[0])
	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, rowToRecord(headers, row))
	}
	return NewDatasetWithColumns(records, headers), nil
}

func csvHeaders(raw []byte, sep rune) ([]string, *csv.Reader, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}
	return cleanHeaders(headers), reader, nil
}

func cleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "﻿"))
	}
	return out
}

// rowToRecord maps cells onto headers. Short rows leave the trailing columns
// absent and blank headers are dropped.
func rowToRecord(headers, cells []string) map[string]interface{} {
	rec := make(map[string]interface{}, len(headers))
	for i, val := range cells {
		if i >= len(headers) || headers[i] == "" {
			continue
		}
		rec[headers[i]] = strings.TrimSpace(val)
	}
	return rec
}
