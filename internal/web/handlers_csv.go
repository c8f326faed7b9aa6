package web

import (
	"net/http"

	"github.com/datalens/datalens/internal/core"
	"github.com/datalens/datalens/internal/logging"
	"github.com/datalens/datalens/internal/tabular"
	"github.com/google/uuid"
)

// handleParseCSV parses a single uploaded CSV file in-memory.
//
// Form fields:
//   - file: the CSV upload (required)
//   - limit_rows: truncate returned rows for preview; totals keep the
//     full counts
//   - tree: "structure" to include a synthesized hierarchy of the
//     headers, "values" to additionally aggregate row values into leaves
func (s *Server) handleParseCSV(w http.ResponseWriter, r *http.Request) {
	file, err := readFormFile(r, "file")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	treeMode, ok := hierarchyMode(r.FormValue("tree"))
	if !ok {
		s.badRequest(w, r, "tree must be \"structure\" or \"values\"")
		return
	}

	result, err := s.service.ParseSingle(file, formInt(r, "limit_rows", 0), treeMode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// hierarchyMode translates the tree form value into a policy.
func hierarchyMode(raw string) (core.HierarchyMode, bool) {
	switch raw {
	case "":
		return "", true
	case "structure":
		return core.HierarchyStructure, true
	case "values":
		return core.HierarchyAggregated, true
	default:
		return "", false
	}
}

// handleParseBatch combines multiple uploaded CSV files, persists the
// result, and returns the stored import's metadata.
func (s *Server) handleParseBatch(w http.ResponseWriter, r *http.Request) {
	files, err := readFormFiles(r, "files")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	record, err := s.service.ImportFiles(r.Context(), files)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// tableSearchResponse is the payload of the in-memory table search.
type tableSearchResponse struct {
	Headers      []string      `json:"headers"`
	Rows         []tabular.Row `json:"rows"`
	TotalMatches int           `json:"total_matches"`
}

// handleSearchTable combines uploaded CSV files and searches the result
// in-memory, without persisting anything.
//
// Form fields:
//   - files: one or more CSV uploads
//   - query: substring to match, case-insensitively
//   - fields: comma-separated subset of "header,value"; empty means both
func (s *Server) handleSearchTable(w http.ResponseWriter, r *http.Request) {
	files, err := readFormFiles(r, "files")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	fields, ok := tableSearchFields(r.FormValue("fields"))
	if !ok {
		s.badRequest(w, r, "fields must be a subset of \"header,value\"")
		return
	}

	table, err := s.service.CombineFiles(files)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	matches := s.service.SearchTable(table, r.FormValue("query"), fields)
	writeJSON(w, http.StatusOK, tableSearchResponse{
		Headers:      table.Headers,
		Rows:         matches,
		TotalMatches: len(matches),
	})
}

// tableSearchFields translates the fields form value into a field set.
func tableSearchFields(raw string) (tabular.SearchFields, bool) {
	if raw == "" {
		return tabular.AllSearchFields(), true
	}

	var fields tabular.SearchFields
	for _, name := range splitColumns(raw) {
		switch name {
		case "header":
			fields.Header = true
		case "value":
			fields.Value = true
		default:
			return tabular.SearchFields{}, false
		}
	}
	return fields, true
}

// handleGetImport returns stored import metadata.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	record, err := s.service.GetImport(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleImportRows returns one page of an import's rows in original
// order. Pages past the end are empty, not an error.
func (s *Server) handleImportRows(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	page, pageSize := s.pageParams(r)
	result, err := s.service.Rows(r.Context(), id, page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSearchImport returns one page of an import's rows whose selected
// columns contain the query. Empty columns searches every header.
func (s *Server) handleSearchImport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	page, pageSize := s.pageParams(r)
	columns := splitColumns(r.FormValue("columns"))

	result, err := s.service.SearchImport(r.Context(), id, r.FormValue("query"), columns, page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// exportCountsRequest selects the import and columns for a value
// frequency export.
type exportCountsRequest struct {
	ImportID uuid.UUID `json:"import_id"`
	Columns  []string  `json:"columns"`
}

// handleExportCounts streams per-column value frequency counts as CSV.
func (s *Server) handleExportCounts(w http.ResponseWriter, r *http.Request) {
	var req exportCountsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	if req.ImportID == uuid.Nil {
		s.badRequest(w, r, "import_id is required")
		return
	}
	if len(req.Columns) == 0 {
		s.badRequest(w, r, "columns is required")
		return
	}

	// Resolve the import before committing to a CSV response so an
	// unknown id still gets a proper error body.
	if _, err := s.service.GetImport(r.Context(), req.ImportID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="field_counts.csv"`)
	w.WriteHeader(http.StatusOK)

	// Streamed: a failure here truncates the download, it cannot change
	// the already-sent status.
	if err := s.service.ExportFieldCounts(r.Context(), req.ImportID, req.Columns, w); err != nil {
		logging.FromContext(r.Context()).Error("counts export aborted",
			"import_id", req.ImportID,
			"error", err,
		)
	}
}
