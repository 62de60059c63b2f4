// Package resume remembers where playback of a track stopped.
package resume

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
)

const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"

	dbName = "resume.sqlite"
)

// NewStore creates a resume store for backend. An empty backend means memory,
// which keeps positions for the lifetime of the process only. The sqlite backend
// without a directory also degrades to memory.
func NewStore(backend, dir string) (ports.ResumeStore, error) {
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSqlite:
		if dir == "" {
			return NewMemoryStore(), nil
		}
		return NewSqliteStore(filepath.Join(dir, dbName))
	default:
		return nil, fmt.Errorf("unknown resume store backend: %s (supported: memory, sqlite)", backend)
	}
}

// MemoryStore implements ports.ResumeStore using a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]ports.ResumePoint
}

// NewMemoryStore creates an in-memory resume store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]ports.ResumePoint)}
}

func (s *MemoryStore) Put(ctx context.Context, trackID string, point *ports.ResumePoint) error {
	if point == nil {
		return fmt.Errorf("resume: nil point for %q", trackID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return ErrClosed
	}
	s.data[trackID] = *point
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, trackID string) (*ports.ResumePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if val, ok := s.data[trackID]; ok {
		return &val, nil
	}
	return nil, nil
}

func (s *MemoryStore) Delete(ctx context.Context, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, trackID)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

var _ ports.ResumeStore = (*MemoryStore)(nil)
