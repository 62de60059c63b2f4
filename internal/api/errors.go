// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/mediadeck/internal/domain/session/lifecycle"
	"github.com/ManuGH/mediadeck/internal/domain/session/manager"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps domain errors to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, model.ErrOutOfRange):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, model.ErrNotRecording),
		errors.Is(err, manager.ErrRecordingActive):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrEngineLoad),
		errors.Is(err, model.ErrEngineRecord),
		errors.Is(err, model.ErrEnginePlayback):
		return http.StatusBadGateway, "engine_failure"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError classifies err and writes it with the request ID.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	logger := mdlog.WithComponentFromContext(r.Context(), "api")
	ev := logger.Debug()
	if code >= http.StatusInternalServerError {
		ev = logger.Warn()
	}
	ev.Err(err).Int("status", code).Str("path", r.URL.Path).Msg("request failed")

	writeJSON(w, code, ErrorResponse{
		Error:     kind,
		Detail:    err.Error(),
		RequestID: mdlog.RequestIDFromContext(r.Context()),
	})
}

// writeBadRequest writes a 400 for malformed input.
func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     "bad_request",
		Detail:    detail,
		RequestID: mdlog.RequestIDFromContext(r.Context()),
	})
}
