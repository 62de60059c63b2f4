// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness checks for the daemon.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/mediadeck/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager manages health and readiness checks
type Manager struct {
	version  string
	mu       sync.RWMutex
	checkers []Checker
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Check runs every checker. Any unhealthy component makes the daemon not ready.
func (m *Manager) Check(ctx context.Context) HealthResponse {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	resp := HealthResponse{
		Status:    StatusHealthy,
		Ready:     true,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if len(checkers) == 0 {
		return resp
	}

	resp.Checks = make(map[string]CheckResult, len(checkers))
	hasDegraded := false
	for _, checker := range checkers {
		result := checker.Check(ctx)
		resp.Checks[checker.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if !resp.Ready {
		resp.Status = StatusUnhealthy
	} else if hasDegraded {
		resp.Status = StatusDegraded
	}
	return resp
}

// ServeHealth answers 200 while ready and 503 otherwise.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "health")
	resp := m.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if resp.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "health.encode_error").Msg("failed to encode health response")
	}

	logger.Debug().
		Str(log.FieldEvent, "health.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("health check performed")
}

// FuncChecker adapts a function to Checker. A nil error is healthy.
type FuncChecker struct {
	name     string
	fn       func(ctx context.Context) error
	degraded bool
}

// NewFuncChecker reports unhealthy when fn fails.
func NewFuncChecker(name string, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

// Informational downgrades failures of c to degraded so they never block readiness.
func Informational(c *FuncChecker) *FuncChecker {
	c.degraded = true
	return c
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	if err := c.fn(ctx); err != nil {
		st := StatusUnhealthy
		if c.degraded {
			st = StatusDegraded
		}
		return CheckResult{Status: st, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// WritableDirChecker checks that a directory exists and accepts new files.
type WritableDirChecker struct {
	name string
	path string
}

// NewWritableDirChecker creates a checker for directory writability.
func NewWritableDirChecker(name, path string) *WritableDirChecker {
	return &WritableDirChecker{name: name, path: path}
}

func (c *WritableDirChecker) Name() string { return c.name }

func (c *WritableDirChecker) Check(ctx context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	if err := checkWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "stat", Path: path, Err: os.ErrInvalid}
	}
	f, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
