// Package store persists combined CSV imports in PostgreSQL and serves
// the paginated row queries over them.
//
// Row payloads are stored as JSONB field maps keyed by column name. The
// import id is a UUID generated at creation time and treated as opaque
// by everything above this package.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/datalens/datalens/internal/core"
	"github.com/datalens/datalens/internal/logging"
	"github.com/datalens/datalens/internal/tabular"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL-backed implementation of core.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on top of the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// schema is applied idempotently at startup.
const schema = `
CREATE TABLE IF NOT EXISTS csv_imports (
	id            UUID PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	total_rows    INTEGER NOT NULL,
	total_columns INTEGER NOT NULL,
	headers       JSONB NOT NULL,
	status        TEXT NOT NULL,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS csv_import_files (
	import_id   UUID PRIMARY KEY REFERENCES csv_imports(id) ON DELETE CASCADE,
	file_names  JSONB NOT NULL,
	combined_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS csv_rows (
	id        BIGSERIAL PRIMARY KEY,
	import_id UUID NOT NULL REFERENCES csv_imports(id) ON DELETE CASCADE,
	row_index INTEGER NOT NULL,
	row_data  JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_csv_rows_import_row
	ON csv_rows (import_id, row_index);
`

// EnsureSchema creates the storage tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// CreateImport stores the combined table and its source file names.
// The import is created with status "processing" and flipped to
// "completed" once every row is written; any failure along the way is
// recorded on the import record before the error is returned.
func (s *Store) CreateImport(ctx context.Context, table *tabular.Table, fileNames []string) (uuid.UUID, error) {
	id := uuid.New()
	logger := logging.WithFields(ctx, "import_id", id)

	headersJSON, err := json.Marshal(table.Headers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal headers: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO csv_imports (id, total_rows, total_columns, headers, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, table.TotalRows, table.TotalColumns, headersJSON, core.StatusProcessing,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert import: %w", err)
	}

	if err := s.writeImportBody(ctx, id, table, fileNames); err != nil {
		s.markError(ctx, id, err)
		return uuid.Nil, err
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE csv_imports SET status = $2 WHERE id = $1`,
		id, core.StatusCompleted,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("complete import: %w", err)
	}

	logger.Debug("import stored", "rows", table.TotalRows, "files", len(fileNames))
	return id, nil
}

// writeImportBody inserts the file metadata and all rows in one
// transaction. Rows go through the COPY protocol, which is much faster
// than row-at-a-time inserts for bulk loads.
func (s *Store) writeImportBody(ctx context.Context, id uuid.UUID, table *tabular.Table, fileNames []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	namesJSON, err := json.Marshal(fileNames)
	if err != nil {
		return fmt.Errorf("marshal file names: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO csv_import_files (import_id, file_names) VALUES ($1, $2)`,
		id, namesJSON,
	); err != nil {
		return fmt.Errorf("insert import files: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"csv_rows"},
		[]string{"import_id", "row_index", "row_data"},
		pgx.CopyFromSlice(len(table.Rows), func(i int) ([]any, error) {
			payload, err := json.Marshal(table.Rows[i])
			if err != nil {
				return nil, fmt.Errorf("marshal row %d: %w", i, err)
			}
			return []any{id, i, payload}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

// markError records a failure on the import record. Best effort: the
// original error matters more than the bookkeeping update.
func (s *Store) markError(ctx context.Context, id uuid.UUID, cause error) {
	_, err := s.pool.Exec(ctx,
		`UPDATE csv_imports SET status = $2, error_message = $3 WHERE id = $1`,
		id, core.StatusError, cause.Error(),
	)
	if err != nil {
		logging.FromContext(ctx).Error("mark import failed",
			"import_id", id,
			"error", err,
		)
	}
}

// GetImport returns import metadata, or core.ErrNotFound.
func (s *Store) GetImport(ctx context.Context, id uuid.UUID) (*core.ImportRecord, error) {
	var (
		rec         core.ImportRecord
		headersJSON []byte
		errMsg      *string
	)

	err := s.pool.QueryRow(ctx,
		`SELECT id, total_rows, total_columns, headers, status, error_message
		 FROM csv_imports WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.TotalRows, &rec.TotalColumns, &headersJSON, &rec.Status, &errMsg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get import: %w", err)
	}

	if err := json.Unmarshal(headersJSON, &rec.Headers); err != nil {
		return nil, fmt.Errorf("decode import headers: %w", err)
	}
	if errMsg != nil {
		rec.ErrorMessage = *errMsg
	}
	return &rec, nil
}
