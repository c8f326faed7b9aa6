package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datalens/datalens/internal/logging"
	"github.com/datalens/datalens/internal/tabular"
	"github.com/google/uuid"
)

// QueryRows returns one page of an import's rows in original row order
// plus the total row count. A page past the end yields an empty page.
func (s *Store) QueryRows(ctx context.Context, id uuid.UUID, page, pageSize int) ([]tabular.Row, int, error) {
	// Resolve the import first so an unknown id is NotFound, not an
	// empty page.
	if _, err := s.GetImport(ctx, id); err != nil {
		return nil, 0, err
	}

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM csv_rows WHERE import_id = $1`, id,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count rows: %w", err)
	}

	rows, err := s.fetchRows(ctx,
		`SELECT row_index, row_data FROM csv_rows
		 WHERE import_id = $1
		 ORDER BY row_index
		 OFFSET $2 LIMIT $3`,
		id, (page-1)*pageSize, pageSize,
	)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SearchRows returns one page of rows whose selected columns contain
// query, case-insensitively, OR-combined across columns. When columns is
// empty the import's full header set is searched.
func (s *Store) SearchRows(ctx context.Context, id uuid.UUID, query string, columns []string, page, pageSize int) ([]tabular.Row, int, error) {
	rec, err := s.GetImport(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if len(columns) == 0 {
		columns = rec.Headers
	}

	predicate, args := searchPredicate(columns, query, 2)
	args = append([]any{id}, args...)

	var total int
	countSQL := `SELECT count(*) FROM csv_rows WHERE import_id = $1 AND ` + predicate
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count matching rows: %w", err)
	}

	pageSQL := fmt.Sprintf(
		`SELECT row_index, row_data FROM csv_rows
		 WHERE import_id = $1 AND %s
		 ORDER BY row_index
		 OFFSET $%d LIMIT $%d`,
		predicate, len(args)+1, len(args)+2,
	)
	pageArgs := append(args, (page-1)*pageSize, pageSize)

	rows, err := s.fetchRows(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AllRows returns every row of the import in row-index order.
func (s *Store) AllRows(ctx context.Context, id uuid.UUID) ([]tabular.Row, error) {
	if _, err := s.GetImport(ctx, id); err != nil {
		return nil, err
	}
	return s.fetchRows(ctx,
		`SELECT row_index, row_data FROM csv_rows
		 WHERE import_id = $1
		 ORDER BY row_index`,
		id,
	)
}

// rawRow is one scanned (row_index, row_data) pair before payload
// normalization.
type rawRow struct {
	index   int
	payload []byte
}

// fetchRows runs a (row_index, row_data) query and normalizes every
// payload.
func (s *Store) fetchRows(ctx context.Context, sql string, args ...any) ([]tabular.Row, error) {
	pgRows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer pgRows.Close()

	raw := make([]rawRow, 0, 16)
	for pgRows.Next() {
		var rr rawRow
		if err := pgRows.Scan(&rr.index, &rr.payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		raw = append(raw, rr)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return normalizeRows(ctx, raw), nil
}

// normalizeRows decodes every scanned payload into a field map. A row
// whose payload cannot be decoded degrades to an empty field map with a
// warning; the surrounding rows are unaffected and the page still
// succeeds. The result always has exactly one row per input.
func normalizeRows(ctx context.Context, raw []rawRow) []tabular.Row {
	result := make([]tabular.Row, 0, len(raw))
	for _, rr := range raw {
		row, ok := decodePayload(rr.payload)
		if !ok {
			logging.FromContext(ctx).Warn("undecodable row payload, substituting empty row",
				"row_index", rr.index,
			)
		}
		result = append(result, row)
	}
	return result
}

// decodePayload coerces a stored payload into a field map. It accepts a
// JSON object of strings, a double-encoded JSON string holding one, or an
// object with non-string values (stringified). Anything else yields an
// empty map and ok=false so one corrupt row never fails a page.
func decodePayload(payload []byte) (tabular.Row, bool) {
	var row tabular.Row
	if err := json.Unmarshal(payload, &row); err == nil {
		if row == nil {
			row = tabular.Row{}
		}
		return row, true
	}

	// Some writers double-encode the object as a JSON string.
	var nested string
	if err := json.Unmarshal(payload, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &row); err == nil && row != nil {
			return row, true
		}
		return tabular.Row{}, false
	}

	// Mixed-type object: keep the keys, stringify the values.
	var loose map[string]any
	if err := json.Unmarshal(payload, &loose); err == nil {
		row = make(tabular.Row, len(loose))
		for key, value := range loose {
			switch v := value.(type) {
			case string:
				row[key] = v
			case nil:
				row[key] = ""
			default:
				row[key] = fmt.Sprint(v)
			}
		}
		return row, true
	}

	return tabular.Row{}, false
}

// searchPredicate builds an OR-combined ILIKE predicate over the given
// columns with placeholders starting at argStart. With no columns it
// degenerates to TRUE (everything matches). The query is escaped so LIKE
// metacharacters match literally.
func searchPredicate(columns []string, query string, argStart int) (string, []any) {
	if len(columns) == 0 {
		return "TRUE", nil
	}

	pattern := "%" + escapeLike(query) + "%"
	conditions := make([]string, 0, len(columns))
	args := make([]any, 0, 2*len(columns))

	for _, column := range columns {
		conditions = append(conditions,
			fmt.Sprintf("row_data->>$%d ILIKE $%d", argStart, argStart+1))
		args = append(args, column, pattern)
		argStart += 2
	}

	return "(" + strings.Join(conditions, " OR ") + ")", args
}

// escapeLike escapes LIKE/ILIKE metacharacters in a user query.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
