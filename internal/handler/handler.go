// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fintrack/fintrack/internal/handler/dto"
	"github.com/fintrack/fintrack/internal/service"
	"github.com/fintrack/fintrack/internal/summary"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// Error codes returned in the "code" field of error responses.
const (
	codeInvalidJSON        = "INVALID_JSON"
	codeValidation         = "VALIDATION_ERROR"
	codeInvalidWindow      = "INVALID_WINDOW"
	codeUsernameTaken      = "USERNAME_TAKEN"
	codeEmailTaken         = "EMAIL_TAKEN"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeRecordNotFound     = "RECORD_NOT_FOUND"
	codePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	codeNotFound           = "NOT_FOUND"
	codeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	codeInternal           = "INTERNAL_ERROR"
)

// Handler serves the routes that do not belong to a resource.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Index describes the service.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "fintrack",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message, Code: code})
}

// decodeJSON reads the request body into dst and answers the request itself
// when the body is unusable. It reports whether the caller should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, codeInvalidJSON, "invalid request body")
		return false
	}
	return true
}

// handleServiceError maps service errors to HTTP responses. Unexpected
// errors are logged in full and reported generically.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, summary.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, codeInvalidWindow, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, codeUsernameTaken, "username already taken")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, codeEmailTaken, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, "invalid credentials")
	case errors.Is(err, service.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, codeRecordNotFound, "record not found")
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "an internal error occurred")
	}
}
