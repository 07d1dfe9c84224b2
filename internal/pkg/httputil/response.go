// Package httputil holds the JSON request/response helpers and middleware
// shared by the rentfleet HTTP services.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 1 << 20

// ErrValidation marks a malformed request body or parameter.
var ErrValidation = errno.New(http.StatusBadRequest, "validation_error", "validation error")

// ErrRouteNotFound is returned for paths no handler is registered for.
var ErrRouteNotFound = errno.New(http.StatusNotFound, "route_not_found", "route not found")

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to encode response body")
	}
}

// WriteError maps err to its status code and writes an ErrorResponse.
func WriteError(w http.ResponseWriter, err error) {
	status, code := errno.Decode(err)
	if status >= http.StatusInternalServerError {
		log.Warn("Request failed", "status", status, "code", code, "error", err.Error())
	}
	WriteJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// WriteOK acknowledges a callback with the plain JSON string "ok".
func WriteOK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, "ok")
}

// DecodeJSON decodes the request body into v. Any failure wraps ErrValidation.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty request body", ErrValidation)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", ErrValidation)
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Validationf returns a formatted error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
