package core

import (
	"context"

	"github.com/datalens/datalens/internal/tabular"
	"github.com/datalens/datalens/internal/tree"
	"github.com/google/uuid"
)

// ImportStatus tracks the lifecycle of a persisted import.
type ImportStatus string

const (
	StatusProcessing ImportStatus = "processing"
	StatusCompleted  ImportStatus = "completed"
	StatusError      ImportStatus = "error"
)

// ImportRecord is the stored metadata of one combined CSV import.
type ImportRecord struct {
	ID           uuid.UUID    `json:"import_id"`
	TotalRows    int          `json:"total_rows"`
	TotalColumns int          `json:"total_columns"`
	Headers      []string     `json:"headers"`
	Status       ImportStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// Store is the persistence collaborator for combined imports. The core
// treats import ids as opaque keys and row payloads as field maps; how
// they are stored is the implementation's business.
type Store interface {
	// CreateImport persists the combined table plus its source file names
	// and returns the new import's id.
	CreateImport(ctx context.Context, table *tabular.Table, fileNames []string) (uuid.UUID, error)

	// GetImport returns import metadata, or ErrNotFound.
	GetImport(ctx context.Context, id uuid.UUID) (*ImportRecord, error)

	// QueryRows returns one page of rows ordered by original row index,
	// plus the total row count for the import.
	QueryRows(ctx context.Context, id uuid.UUID, page, pageSize int) ([]tabular.Row, int, error)

	// SearchRows returns one page of rows whose selected columns (all
	// import headers when columns is empty) contain query,
	// case-insensitively, plus the total matching count.
	SearchRows(ctx context.Context, id uuid.UUID, query string, columns []string, page, pageSize int) ([]tabular.Row, int, error)

	// AllRows returns every row of the import in row-index order.
	AllRows(ctx context.Context, id uuid.UUID) ([]tabular.Row, error)
}

// ParseResult is the outcome of parsing tabular content in-memory.
// Root is nil unless a hierarchy tree was requested.
type ParseResult struct {
	Data         *tabular.Table `json:"data"`
	Root         *tree.Node     `json:"root,omitempty"`
	TotalRows    int            `json:"total_rows"`
	TotalColumns int            `json:"total_columns"`
}

// MarkupResult is the outcome of parsing one markup document.
type MarkupResult struct {
	Root       *tree.Node `json:"root"`
	TotalNodes int        `json:"total_nodes"`
	MaxDepth   int        `json:"max_depth"`
}

// RowsPage is one window of persisted rows together with the pagination
// envelope callers need to fetch the rest.
type RowsPage struct {
	Rows       []tabular.Row `json:"rows"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// TotalPages returns ceil(totalCount / pageSize).
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// HierarchyMode selects the value policy for synthesized trees.
type HierarchyMode string

const (
	// HierarchyStructure builds structure only; rows stay independent.
	HierarchyStructure HierarchyMode = "structure"
	// HierarchyAggregated additionally joins distinct row values per leaf.
	// Retained for parity with the legacy hierarchical export.
	HierarchyAggregated HierarchyMode = "aggregated"
)

// FieldCount is one value's frequency within a column.
type FieldCount struct {
	Value string
	Count int
}
