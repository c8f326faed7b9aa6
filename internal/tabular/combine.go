package tabular

// Table is the normalized result of combining one or more CSV sources.
//
// Headers is the ordered union of every source's header row, first-seen
// order preserved. Every Row contains an entry for every header.
// TotalRows and TotalColumns describe the full combined result and are
// not adjusted when Rows is truncated for a preview.
type Table struct {
	Headers      []string `json:"headers"`
	Rows         []Row    `json:"rows"`
	TotalRows    int      `json:"total_rows"`
	TotalColumns int      `json:"total_columns"`
}

// Combine unions the given CSV sources into one Table.
//
// Headers are unioned by exact string identity (no trimming, no case
// folding) with first-seen order preserved: source 0's headers lead, and
// each later source appends only its unseen headers in their own order.
// Rows are concatenated in source order, and every row is padded with
// empty strings for headers its source or record lacked. A source with a
// header but no data rows still contributes to the header union.
//
// A single source is just the one-element case of the same algorithm.
// Zero sources is a caller error (ErrNoInput).
func Combine(contents []string) (*Table, error) {
	if len(contents) == 0 {
		return nil, ErrNoInput
	}

	// First pass: union headers only.
	var allHeaders []string
	seen := make(map[string]struct{})
	for _, content := range contents {
		headers, err := parseHeaders(content)
		if err != nil {
			return nil, err
		}
		for _, header := range headers {
			if _, ok := seen[header]; ok {
				continue
			}
			seen[header] = struct{}{}
			allHeaders = append(allHeaders, header)
		}
	}
	if allHeaders == nil {
		allHeaders = []string{}
	}

	// Second pass: materialize every row over the final header set.
	var allRows []Row
	for _, content := range contents {
		_, rows, err := Parse(content)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			combined := make(Row, len(allHeaders))
			for _, header := range allHeaders {
				combined[header] = row[header]
			}
			allRows = append(allRows, combined)
		}
	}
	if allRows == nil {
		allRows = []Row{}
	}

	return &Table{
		Headers:      allHeaders,
		Rows:         allRows,
		TotalRows:    len(allRows),
		TotalColumns: len(allHeaders),
	}, nil
}

// Truncate returns a copy of the table with at most limit rows.
// TotalRows still reports the pre-truncation count so callers can build
// pagination info from a preview. A non-positive limit returns the table
// unchanged.
func (t *Table) Truncate(limit int) *Table {
	if limit <= 0 || limit >= len(t.Rows) {
		return t
	}
	return &Table{
		Headers:      t.Headers,
		Rows:         t.Rows[:limit],
		TotalRows:    t.TotalRows,
		TotalColumns: t.TotalColumns,
	}
}
