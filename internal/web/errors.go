package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get a coded user message
//  4. Technical error + context is logged with request ID for correlation
//  5. The user message is returned as JSON with the mapped status code

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/datalens/datalens/internal/core"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns the mapped coded
// message as JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	statusCode := statusFor(err, userMsg)

	// Get request ID for correlation
	requestID := middleware.GetReqID(r.Context())

	// Log the technical error with context
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps an error to its HTTP status code. Client-side problems
// (bad input, oversized or unparseable files, empty uploads) are 400,
// unknown imports are 404, everything else is a 500.
func statusFor(err error, msg core.UserMessage) int {
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}

	var sizeErr *core.SizeError
	if errors.As(err, &sizeErr) {
		return http.StatusBadRequest
	}

	switch msg.Code {
	case "FILE001", "FILE002", "FILE003", "FILE004":
		return http.StatusBadRequest
	case "IMP001":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a request-shape problem (missing field, malformed
// parameter) that never reached the core layer.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	requestID := middleware.GetReqID(r.Context())
	slog.Warn("bad request",
		"path", r.URL.Path,
		"method", r.Method,
		"error", message,
		"request_id", requestID,
	)

	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}
