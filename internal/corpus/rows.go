// Package corpus turns the externally maintained feedback sheet into
// normalized FeedbackEntry records.
package corpus

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// RawRow is one loosely-typed source row: column label → cell value.
// Missing keys and blank strings are both treated as "no value".
type RawRow map[string]string

// ParseCSV decodes a CSV byte stream into raw rows. The first record holds
// the column labels; later records are zipped against it. Short records are
// padded with empty cells, extra cells are ignored. An empty stream yields no
// rows and no error.
func ParseCSV(data []byte) ([]RawRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var rows []RawRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record: %w", err)
		}
		rows = append(rows, zipRow(header, record))
	}
	return rows, nil
}

// ParseXLSX decodes the first sheet of an xlsx workbook into raw rows, using
// the first row as column labels. The sheet export of the source is
// equivalent to its CSV form, so both go through the same header zipping.
func ParseXLSX(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, zipRow(header, record))
	}
	return rows, nil
}

func zipRow(header, record []string) RawRow {
	row := make(RawRow, len(header))
	for i, label := range header {
		if label == "" {
			continue
		}
		if i < len(record) {
			row[label] = record[i]
		} else {
			row[label] = ""
		}
	}
	return row
}
