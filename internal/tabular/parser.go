// Package tabular parses delimited-text content and combines multiple
// sources into one normalized table with a unioned header set.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned by Combine when called with zero sources.
var ErrNoInput = errors.New("no csv content provided")

// Row is one record's column-name to value mapping. After combining,
// every row holds an entry for every table header; empty string stands
// for a cell the source did not supply.
type Row map[string]string

// Parse reads CSV content and returns the header row plus one Row per
// data record. The first line is always treated as the header. Records
// shorter than the header contribute only the fields they have; filling
// the gaps is the combiner's job. Structurally unreadable input (an
// unterminated quote, for example) fails the whole parse.
func Parse(content string) ([]string, []Row, error) {
	reader := csv.NewReader(strings.NewReader(content))
	// Sources routinely have ragged rows; length consistency is not an error.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return []string{}, []Row{}, nil
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

// parseHeaders reads only the header row of content. Used by the
// combiner's first pass so header unioning doesn't materialize rows twice.
func parseHeaders(content string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("parse csv header: %w", err)
	}
	return headers, nil
}
