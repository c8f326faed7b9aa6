package tabular

import "strings"

// SearchFields selects which parts of the table substring matching
// applies to. Header matching is evaluated per row: if any table header
// contains the query, every row carries a header match.
type SearchFields struct {
	Header bool
	Value  bool
}

// AllSearchFields enables both header and value matching.
func AllSearchFields() SearchFields {
	return SearchFields{Header: true, Value: true}
}

// Search returns the rows of t that match query case-insensitively.
// A row matches if header matching is enabled and any header contains
// the query, or if value matching is enabled and any of the row's cells
// contains the query. An empty query matches every row when at least one
// field is enabled. Row order is preserved.
func Search(t *Table, query string, fields SearchFields) []Row {
	query = strings.ToLower(query)

	// Header matching does not depend on the row, compute it once.
	headerHit := false
	if fields.Header {
		for _, header := range t.Headers {
			if strings.Contains(strings.ToLower(header), query) {
				headerHit = true
				break
			}
		}
	}

	var matched []Row
	for _, row := range t.Rows {
		if headerHit {
			matched = append(matched, row)
			continue
		}
		if fields.Value && rowValueMatches(row, query) {
			matched = append(matched, row)
		}
	}
	return matched
}

func rowValueMatches(row Row, query string) bool {
	for _, value := range row {
		if value != "" && strings.Contains(strings.ToLower(value), query) {
			return true
		}
	}
	return false
}
