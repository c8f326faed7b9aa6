package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/datalens/datalens/internal/core"
	"github.com/datalens/datalens/internal/tree"
)

// handleParseXML parses a single uploaded XML file into a labeled tree.
func (s *Server) handleParseXML(w http.ResponseWriter, r *http.Request) {
	file, err := readFormFile(r, "file")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ParseMarkup(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleParseXMLString parses an XML document posted as the raw request
// body. An optional name query parameter labels the document in errors.
func (s *Server) handleParseXMLString(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read body: %w", err))
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "document"
	}

	result, err := s.service.ParseMarkup(core.NamedContent{Name: name, Content: string(body)})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// flattenResponse is the payload of a tree flatten request.
type flattenResponse struct {
	Records      []tree.FlatRecord `json:"records"`
	TotalRecords int               `json:"total_records"`
}

// handleFlattenTree flattens a posted node tree into path-ordered records.
func (s *Server) handleFlattenTree(w http.ResponseWriter, r *http.Request) {
	var root tree.Node
	if err := decodeJSON(r, &root); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	records := tree.Flatten(&root)
	writeJSON(w, http.StatusOK, flattenResponse{
		Records:      records,
		TotalRecords: len(records),
	})
}

// treeSearchRequest carries a node tree plus the query to run over it.
type treeSearchRequest struct {
	Root   *tree.Node `json:"root"`
	Query  string     `json:"query"`
	Fields []string   `json:"fields"`
}

// treeSearchResponse is the payload of a tree search request.
type treeSearchResponse struct {
	Matches      []*tree.Node `json:"matches"`
	TotalMatches int          `json:"total_matches"`
}

// handleSearchTree searches a posted node tree.
//
// fields selects a subset of "label,attribute,value"; empty means all
// three.
func (s *Server) handleSearchTree(w http.ResponseWriter, r *http.Request) {
	var req treeSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	if req.Root == nil {
		s.badRequest(w, r, "root is required")
		return
	}

	fields, ok := treeSearchFields(req.Fields)
	if !ok {
		s.badRequest(w, r, "fields must be a subset of \"label,attribute,value\"")
		return
	}

	matches := tree.Search(req.Root, req.Query, fields)
	writeJSON(w, http.StatusOK, treeSearchResponse{
		Matches:      matches,
		TotalMatches: len(matches),
	})
}

// treeSearchFields translates field names into a field set.
func treeSearchFields(names []string) (tree.SearchFields, bool) {
	if len(names) == 0 {
		return tree.AllSearchFields(), true
	}

	var fields tree.SearchFields
	for _, name := range names {
		switch name {
		case "label":
			fields.Label = true
		case "attribute":
			fields.Attribute = true
		case "value":
			fields.Value = true
		default:
			return tree.SearchFields{}, false
		}
	}
	return fields, true
}
