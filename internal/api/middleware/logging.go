// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"time"

	"github.com/ManuGH/mediadeck/internal/log"
)

// AccessLog logs one line per request at debug, or warn for server errors.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		logger := log.WithComponentFromContext(r.Context(), "http")
		ev := logger.Debug()
		if sw.statusCode >= http.StatusInternalServerError {
			ev = logger.Warn()
		}
		traceID, _ := ExtractTraceContext(r)
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.statusCode).
			Int("bytes", sw.bytesWritten).
			Dur("duration", time.Since(start)).
			Str("trace_id", traceID).
			Msg("request served")
	})
}
