package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ErrorWithRetry writes a JSON error response carrying a suggested retry
// delay for recoverable failures.
func ErrorWithRetry(w http.ResponseWriter, status int, message string, retryAfterSeconds int) {
	JSON(w, status, ErrorResponse{Error: message, RetryAfterSeconds: retryAfterSeconds})
}
