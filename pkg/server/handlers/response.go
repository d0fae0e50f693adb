// Package handlers implements the cask HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/cask/internal/logger"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; the client sees a truncated body.
		logger.Warn("Failed to encode response", logger.KeyError, err)
	}
}

// writeError writes {"error": message} with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// Conflict writes a 409 Conflict error response.
func Conflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, message)
}

// PayloadTooLarge writes a 413 Request Entity Too Large error response.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	writeError(w, http.StatusRequestEntityTooLarge, message)
}

// InternalServerError writes a 500 Internal Server Error response.
func InternalServerError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}

// decodeJSONBody decodes a JSON request body into v.
// Returns false after writing a 400 if decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}
