// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

// ErrRegistryClosed is returned by Go after CloseAndWait started.
var ErrRegistryClosed = errors.New("registry closed")

// Registry supervises the background goroutines of a deck.
// Every goroutine receives a context that is cancelled by CloseAndWait.
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	names  map[string]int
}

// NewRegistry creates a registry whose goroutines stop when parent is done.
func NewRegistry(parent context.Context) *Registry {
	ctx, cancel := context.WithCancel(parent)
	return &Registry{
		ctx:    ctx,
		cancel: cancel,
		logger: mdlog.WithComponent("registry"),
		names:  make(map[string]int),
	}
}

// Go runs fn in a supervised goroutine. A non-nil error other than
// context cancellation is logged.
func (r *Registry) Go(name string, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("%s: %w", name, ErrRegistryClosed)
	}
	r.names[name]++
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.done(name)
		if err := fn(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error().Err(err).Str("worker", name).Msg("worker exited with error")
			return
		}
		r.logger.Debug().Str("worker", name).Msg("worker exited")
	}()
	return nil
}

func (r *Registry) done(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[name]--; r.names[name] <= 0 {
		delete(r.names, name)
	}
}

// Running returns the number of live goroutines per name.
func (r *Registry) Running() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.names))
	for k, v := range r.names {
		out[k] = v
	}
	return out
}

// CloseAndWait cancels all goroutines and waits for them to return or ctx to expire.
func (r *Registry) CloseAndWait(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for workers: %w", ctx.Err())
	}
}
