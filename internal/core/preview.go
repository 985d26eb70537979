package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PreviewRow maps a header column name to the field value of one data row.
type PreviewRow map[string]string

// Preview is the parsed header and leading data rows of a file.
type Preview struct {
	Header []string
	Rows   []PreviewRow
}

// ParsePreview parses the text returned by ReadLines.
//
// The first non-blank record is the header. Checks run in order and the
// first failure wins:
//
//  1. fewer than two records in total: ErrTooFewRows
//  2. a header with at most one column: ErrHeaderUnreadable
//
// Otherwise up to previewLines-1 data rows are returned, keyed by header
// position. Fields missing from a short row are empty strings and extra
// fields past the header are dropped. Duplicate header names are kept as
// they are; the rightmost column wins in the row map.
func ParsePreview(text string, previewLines int) (*Preview, error) {
	records, err := parseRecords(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeaderUnreadable, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrTooFewRows, len(records))
	}

	header := records[0]
	if len(header) <= 1 {
		return nil, fmt.Errorf("%w: header has %d column(s)", ErrHeaderUnreadable, len(header))
	}

	data := records[1:]
	if limit := previewLines - 1; len(data) > limit {
		data = data[:limit]
	}

	rows := make([]PreviewRow, 0, len(data))
	for _, record := range data {
		rows = append(rows, mapRow(header, record))
	}

	return &Preview{Header: header, Rows: rows}, nil
}

// parseRecords reads every non-blank record from text.
func parseRecords(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if isEmptyRow(record) {
			continue
		}
		records = append(records, record)
	}
}

func mapRow(header, record []string) PreviewRow {
	row := make(PreviewRow, len(header))
	for i, name := range header {
		if i < len(record) {
			row[name] = record[i]
		} else {
			row[name] = ""
		}
	}
	return row
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
