package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/datalens/datalens/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 32 << 20

var errNoFile = errors.New("no file provided")

// readFormFile reads the single uploaded file from the named multipart
// field. A missing field or empty form maps to the empty-upload error.
func readFormFile(r *http.Request, field string) (core.NamedContent, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return core.NamedContent{}, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return core.NamedContent{}, errNoFile
	}
	defer file.Close()

	return readNamedContent(file, header)
}

// readFormFiles reads every uploaded file from the named multipart field,
// in submission order.
func readFormFiles(r *http.Request, field string) ([]core.NamedContent, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, errNoFile
	}

	files := make([]core.NamedContent, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", header.Filename, err)
		}

		content, err := readNamedContent(file, header)
		file.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, content)
	}
	return files, nil
}

func readNamedContent(file multipart.File, header *multipart.FileHeader) (core.NamedContent, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return core.NamedContent{}, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	return core.NamedContent{Name: header.Filename, Content: string(data)}, nil
}

// formInt reads an integer form or query value, falling back to def when
// absent or unparseable.
func formInt(r *http.Request, name string, def int) int {
	raw := r.FormValue(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// pageParams reads page/page_size, applying the configured default and
// cap. Out-of-range values are clamped, never rejected.
func (s *Server) pageParams(r *http.Request) (page, pageSize int) {
	page = formInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = formInt(r, "page_size", s.cfg.Limits.DefaultPageSize)
	if pageSize < 1 {
		pageSize = s.cfg.Limits.DefaultPageSize
	}
	if pageSize > s.cfg.Limits.MaxPageSize {
		pageSize = s.cfg.Limits.MaxPageSize
	}
	return page, pageSize
}

// importID parses the importID URL parameter.
func importID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "importID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid import id %q", raw)
	}
	return id, nil
}

// splitColumns parses a comma-separated column list, dropping empties.
func splitColumns(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			columns = append(columns, p)
		}
	}
	return columns
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
