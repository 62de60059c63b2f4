// SPDX-License-Identifier: MIT

// Package middleware provides the HTTP ingress middleware of the control API.
package middleware

import "github.com/go-chi/chi/v5"

// StackConfig configures the canonical HTTP ingress middleware stack.
type StackConfig struct {
	EnableSecurityHeaders bool
	EnableMetrics         bool
	TracingService        string // empty disables tracing
	EnableLogging         bool
	RateLimitPerMinute    int // zero disables rate limiting
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders)
	}
	// 4. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 5. Tracing
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	// 6. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(AccessLog)
	}
	// 7. Rate limit
	if cfg.RateLimitPerMinute > 0 {
		r.Use(PerMinute(cfg.RateLimitPerMinute))
	}
}
