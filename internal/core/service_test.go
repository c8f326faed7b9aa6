package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datalens/datalens/internal/tabular"
	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	imports map[uuid.UUID]*ImportRecord
	rows    map[uuid.UUID][]tabular.Row
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		imports: make(map[uuid.UUID]*ImportRecord),
		rows:    make(map[uuid.UUID][]tabular.Row),
	}
}

func (f *fakeStore) CreateImport(_ context.Context, table *tabular.Table, _ []string) (uuid.UUID, error) {
	id := uuid.New()
	f.imports[id] = &ImportRecord{
		ID:           id,
		TotalRows:    table.TotalRows,
		TotalColumns: table.TotalColumns,
		Headers:      table.Headers,
		Status:       StatusCompleted,
	}
	f.rows[id] = table.Rows
	return id, nil
}

func (f *fakeStore) GetImport(_ context.Context, id uuid.UUID) (*ImportRecord, error) {
	rec, ok := f.imports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) QueryRows(_ context.Context, id uuid.UUID, page, pageSize int) ([]tabular.Row, int, error) {
	rows, ok := f.rows[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	return paginate(rows, page, pageSize), len(rows), nil
}

func (f *fakeStore) SearchRows(_ context.Context, id uuid.UUID, query string, columns []string, page, pageSize int) ([]tabular.Row, int, error) {
	rec, ok := f.imports[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	if len(columns) == 0 {
		columns = rec.Headers
	}
	var matched []tabular.Row
	for _, row := range f.rows[id] {
		for _, column := range columns {
			if strings.Contains(strings.ToLower(row[column]), strings.ToLower(query)) {
				matched = append(matched, row)
				break
			}
		}
	}
	return paginate(matched, page, pageSize), len(matched), nil
}

func (f *fakeStore) AllRows(_ context.Context, id uuid.UUID) ([]tabular.Row, error) {
	rows, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rows, nil
}

func paginate(rows []tabular.Row, page, pageSize int) []tabular.Row {
	offset := (page - 1) * pageSize
	if offset >= len(rows) {
		return nil
	}
	end := offset + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, Limits{CSVMaxMB: 100, XMLMaxMB: 50}), store
}

func TestParseSingle(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.ParseSingle(NamedContent{Name: "x.csv", Content: "a,b\n1,2\n3,4"}, 0, "")
	if err != nil {
		t.Fatalf("ParseSingle() error = %v", err)
	}
	if result.TotalRows != 2 || result.TotalColumns != 2 {
		t.Errorf("totals = (%d, %d), want (2, 2)", result.TotalRows, result.TotalColumns)
	}
	if result.Root != nil {
		t.Error("Root should be nil without a tree mode")
	}
}

func TestParseSingleLimitRows(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.ParseSingle(NamedContent{Content: "a\n1\n2\n3"}, 2, "")
	if err != nil {
		t.Fatalf("ParseSingle() error = %v", err)
	}
	if len(result.Data.Rows) != 2 {
		t.Errorf("preview rows = %d, want 2", len(result.Data.Rows))
	}
	if result.TotalRows != 3 || result.Data.TotalRows != 3 {
		t.Errorf("TotalRows = %d/%d, want pre-truncation 3", result.TotalRows, result.Data.TotalRows)
	}
}

func TestParseSingleWithHierarchy(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.ParseSingle(NamedContent{Content: "a_b,a_c\n1,2"}, 0, HierarchyStructure)
	if err != nil {
		t.Fatalf("ParseSingle() error = %v", err)
	}
	if result.Root == nil {
		t.Fatal("Root is nil, want synthesized hierarchy")
	}
	if len(result.Root.Children) != 1 || result.Root.Children[0].Label != "a" {
		t.Errorf("hierarchy root children = %+v", result.Root.Children)
	}
	if len(result.Root.Children[0].Children) != 2 {
		t.Errorf("a has %d children, want 2", len(result.Root.Children[0].Children))
	}
}

func TestParseSingleSizeExceeded(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, Limits{CSVMaxMB: 1, XMLMaxMB: 1})

	big := strings.Repeat("x", 2*1024*1024)
	_, err := svc.ParseSingle(NamedContent{Name: "big.csv", Content: big}, 0, "")

	var sizeErr *SizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("error = %v, want SizeError", err)
	}
	if sizeErr.LimitMB != 1 || sizeErr.Kind != "csv" {
		t.Errorf("SizeError = %+v", sizeErr)
	}
	if MapError(err).Code != "FILE001" {
		t.Errorf("MapError code = %s, want FILE001", MapError(err).Code)
	}
}

func TestCombineFilesEmpty(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CombineFiles(nil)
	if err == nil {
		t.Fatal("CombineFiles(nil) expected error")
	}
	if MapError(err).Code != "FILE004" {
		t.Errorf("MapError code = %s, want FILE004", MapError(err).Code)
	}
}

func TestImportFilesRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.ImportFiles(ctx, []NamedContent{
		{Name: "one.csv", Content: "a,b\n1,2"},
		{Name: "two.csv", Content: "b,c\n3,4"},
	})
	if err != nil {
		t.Fatalf("ImportFiles() error = %v", err)
	}
	if rec.TotalRows != 2 || rec.TotalColumns != 3 {
		t.Errorf("record totals = (%d, %d), want (2, 3)", rec.TotalRows, rec.TotalColumns)
	}
	if rec.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", rec.Status)
	}

	page, err := svc.Rows(ctx, rec.ID, 1, 10)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if page.TotalCount != 2 || len(page.Rows) != 2 {
		t.Errorf("page = %+v", page)
	}
	if page.Rows[0]["c"] != "" || page.Rows[1]["a"] != "" {
		t.Errorf("missing cells not padded: %v", page.Rows)
	}
}

func TestRowsPagination(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	id := uuid.New()
	store.imports[id] = &ImportRecord{ID: id, Headers: []string{"n"}, Status: StatusCompleted}
	for i := 0; i < 25; i++ {
		store.rows[id] = append(store.rows[id], tabular.Row{"n": "v"})
	}

	tests := []struct {
		page       int
		wantRows   int
		wantPages  int
		wantTotals int
	}{
		{1, 10, 3, 25},
		{3, 5, 3, 25},
		{4, 0, 3, 25},
	}
	for _, tt := range tests {
		page, err := svc.Rows(ctx, id, tt.page, 10)
		if err != nil {
			t.Fatalf("Rows(page=%d) error = %v", tt.page, err)
		}
		if len(page.Rows) != tt.wantRows {
			t.Errorf("page %d rows = %d, want %d", tt.page, len(page.Rows), tt.wantRows)
		}
		if page.TotalPages != tt.wantPages || page.TotalCount != tt.wantTotals {
			t.Errorf("page %d envelope = %+v", tt.page, page)
		}
	}
}

func TestSearchImport(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.ImportFiles(ctx, []NamedContent{
		{Name: "f.csv", Content: "name,city\nJohn,Oslo\nJane,Bergen"},
	})
	if err != nil {
		t.Fatalf("ImportFiles() error = %v", err)
	}

	page, err := svc.SearchImport(ctx, rec.ID, "OSLO", nil, 1, 10)
	if err != nil {
		t.Fatalf("SearchImport() error = %v", err)
	}
	if page.TotalCount != 1 || page.Rows[0]["name"] != "John" {
		t.Errorf("search result = %+v", page)
	}

	// Column subset excludes the matching column.
	page, err = svc.SearchImport(ctx, rec.ID, "oslo", []string{"name"}, 1, 10)
	if err != nil {
		t.Fatalf("SearchImport() error = %v", err)
	}
	if page.TotalCount != 0 {
		t.Errorf("column-restricted search matched %d, want 0", page.TotalCount)
	}
}

func TestGetImportNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetImport(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for unknown import")
	}
	if MapError(err).Code != "IMP001" {
		t.Errorf("MapError code = %s, want IMP001", MapError(err).Code)
	}
}

func TestParseMarkup(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.ParseMarkup(NamedContent{Name: "d.xml", Content: "<root><x/><x/></root>"})
	if err != nil {
		t.Fatalf("ParseMarkup() error = %v", err)
	}
	if result.TotalNodes != 3 || result.MaxDepth != 2 {
		t.Errorf("stats = (%d, %d), want (3, 2)", result.TotalNodes, result.MaxDepth)
	}
	if result.Root.Children[0].Path == result.Root.Children[1].Path {
		t.Errorf("sibling paths identical: %q", result.Root.Children[0].Path)
	}
}

func TestParseMarkupMalformed(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ParseMarkup(NamedContent{Content: "<a><b></a>"})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if MapError(err).Code != "FILE003" {
		t.Errorf("MapError code = %s, want FILE003", MapError(err).Code)
	}
}

func TestExportFieldCounts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.ImportFiles(ctx, []NamedContent{
		{Name: "f.csv", Content: "status\nactive\nactive\n\ninactive"},
	})
	if err != nil {
		t.Fatalf("ImportFiles() error = %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportFieldCounts(ctx, rec.ID, []string{"status"}, &buf); err != nil {
		t.Fatalf("ExportFieldCounts() error = %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "status,Value,Count" {
		t.Errorf("header line = %q", lines[0])
	}
	if lines[1] != ",active,2" {
		t.Errorf("first count line = %q, want highest count first", lines[1])
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{25, 10, 3},
		{20, 10, 2},
		{0, 10, 0},
		{1, 10, 1},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}
