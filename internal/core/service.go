package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/datalens/datalens/internal/hierarchy"
	"github.com/datalens/datalens/internal/logging"
	"github.com/datalens/datalens/internal/markup"
	"github.com/datalens/datalens/internal/tabular"
	"github.com/datalens/datalens/internal/tree"
	"github.com/google/uuid"
)

// Limits carries the content ceilings the service enforces before parsing.
type Limits struct {
	CSVMaxMB int
	XMLMaxMB int
}

// Service provides the business logic for parsing, combining, and
// querying uploaded data. All parse and traversal operations are pure;
// only the store-backed operations touch external state.
type Service struct {
	store  Store
	limits Limits
}

// NewService creates a Service backed by the given store.
func NewService(store Store, limits Limits) *Service {
	return &Service{store: store, limits: limits}
}

// NamedContent pairs uploaded file content with its original name.
type NamedContent struct {
	Name    string
	Content string
}

// ParseSingle parses one CSV file in-memory. limitRows > 0 truncates the
// returned rows for preview while TotalRows keeps the full count.
// treeMode, when non-empty, also synthesizes a hierarchy tree from the
// combined headers.
func (s *Service) ParseSingle(file NamedContent, limitRows int, treeMode HierarchyMode) (*ParseResult, error) {
	if err := checkSize("csv", file.Name, file.Content, s.limits.CSVMaxMB); err != nil {
		return nil, err
	}

	// A single file is the one-element case of combining.
	table, err := tabular.Combine([]string{file.Content})
	if err != nil {
		return nil, err
	}

	var root *tree.Node
	switch treeMode {
	case HierarchyStructure:
		root = hierarchy.Synthesize(table.Headers)
	case HierarchyAggregated:
		root = hierarchy.SynthesizeAggregated(table.Headers, table.Rows)
	}

	return &ParseResult{
		Data:         table.Truncate(limitRows),
		Root:         root,
		TotalRows:    table.TotalRows,
		TotalColumns: table.TotalColumns,
	}, nil
}

// CombineFiles validates and combines multiple CSV files into one table
// without persisting anything.
func (s *Service) CombineFiles(files []NamedContent) (*tabular.Table, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	contents := make([]string, 0, len(files))
	for _, file := range files {
		if err := checkSize("csv", file.Name, file.Content, s.limits.CSVMaxMB); err != nil {
			return nil, err
		}
		contents = append(contents, file.Content)
	}

	return tabular.Combine(contents)
}

// ImportFiles combines multiple CSV files and persists the result,
// returning the stored import's metadata.
func (s *Service) ImportFiles(ctx context.Context, files []NamedContent) (*ImportRecord, error) {
	table, err := s.CombineFiles(files)
	if err != nil {
		return nil, err
	}

	fileNames := make([]string, 0, len(files))
	for _, file := range files {
		if file.Name != "" {
			fileNames = append(fileNames, file.Name)
		}
	}

	id, err := s.store.CreateImport(ctx, table, fileNames)
	if err != nil {
		return nil, fmt.Errorf("store import: %w", err)
	}

	logging.FromContext(ctx).Info("import created",
		"import_id", id,
		"files", len(files),
		"rows", table.TotalRows,
		"columns", table.TotalColumns,
	)

	return s.store.GetImport(ctx, id)
}

// GetImport returns stored import metadata.
func (s *Service) GetImport(ctx context.Context, id uuid.UUID) (*ImportRecord, error) {
	return s.store.GetImport(ctx, id)
}

// Rows returns one page of an import's rows in original row order.
// Pages past the end are empty, not an error.
func (s *Service) Rows(ctx context.Context, id uuid.UUID, page, pageSize int) (*RowsPage, error) {
	rows, total, err := s.store.QueryRows(ctx, id, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &RowsPage{
		Rows:       rows,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}, nil
}

// SearchImport returns one page of an import's rows whose selected
// columns contain query, case-insensitively. Empty columns means all of
// the import's headers.
func (s *Service) SearchImport(ctx context.Context, id uuid.UUID, query string, columns []string, page, pageSize int) (*RowsPage, error) {
	rows, total, err := s.store.SearchRows(ctx, id, query, columns, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &RowsPage{
		Rows:       rows,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}, nil
}

// SearchTable performs the in-memory table search over combined data.
func (s *Service) SearchTable(table *tabular.Table, query string, fields tabular.SearchFields) []tabular.Row {
	return tabular.Search(table, query, fields)
}

// ParseMarkup parses one XML document into a labeled tree with stats.
func (s *Service) ParseMarkup(file NamedContent) (*MarkupResult, error) {
	if err := checkSize("xml", file.Name, file.Content, s.limits.XMLMaxMB); err != nil {
		return nil, err
	}

	root, err := markup.Parse(file.Content)
	if err != nil {
		return nil, err
	}

	totalNodes, maxDepth := tree.Stats(root)
	return &MarkupResult{
		Root:       root,
		TotalNodes: totalNodes,
		MaxDepth:   maxDepth,
	}, nil
}

// ExportFieldCounts writes per-column value frequency counts for an
// import as CSV. For each column it emits a header row, then one row per
// distinct value ordered by descending count (value ascending on ties),
// then a blank row. Empty cells are reported as "(empty)".
func (s *Service) ExportFieldCounts(ctx context.Context, id uuid.UUID, columns []string, w io.Writer) error {
	rows, err := s.store.AllRows(ctx, id)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	for _, column := range columns {
		counts := countFieldValues(rows, column)

		if err := writer.Write([]string{column, "Value", "Count"}); err != nil {
			return fmt.Errorf("write counts: %w", err)
		}
		for _, fc := range counts {
			if err := writer.Write([]string{"", fc.Value, fmt.Sprintf("%d", fc.Count)}); err != nil {
				return fmt.Errorf("write counts: %w", err)
			}
		}
		if err := writer.Write([]string{}); err != nil {
			return fmt.Errorf("write counts: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// countFieldValues tallies distinct values of one column across rows.
func countFieldValues(rows []tabular.Row, column string) []FieldCount {
	tally := make(map[string]int)
	for _, row := range rows {
		value := row[column]
		if value == "" {
			value = "(empty)"
		}
		tally[value]++
	}

	counts := make([]FieldCount, 0, len(tally))
	for value, count := range tally {
		counts = append(counts, FieldCount{Value: value, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})
	return counts
}
