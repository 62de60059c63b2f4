// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus fans session snapshots out to in-process observers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	"github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/metrics"
)

// SubscriberBuffer is the per-subscriber channel capacity.
const SubscriberBuffer = 64

// MemoryBus is an in-memory pub/sub. It is not durable and delivers in-process
// while publish contexts remain active.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]chan interface{}
	closed bool
}

const dropLogEvery = 100

var dropCount atomic.Uint64

var ErrClosed = errors.New("bus closed")

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan interface{})}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func logDrop(topic, reason string) {
	count := dropCount.Add(1)
	if count%dropLogEvery == 0 {
		log.L().Warn().
			Str("topic", topic).
			Str("reason", reason).
			Uint64("dropped", count).
			Msg("memory bus dropped messages")
	}
}

// Publish delivers event to every subscriber of topic, blocking on full
// subscribers until ctx is done.
func (b *MemoryBus) Publish(ctx context.Context, topic string, event interface{}) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		case <-ctx.Done():
			reason := publishDropReason(ctx.Err())
			metrics.IncBusDropReason(topic, reason)
			logDrop(topic, reason)
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

// TryPublish delivers event without blocking. Subscribers with a full buffer
// miss the event; the number of misses is returned.
func (b *MemoryBus) TryPublish(topic string, event interface{}) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	dropped := 0
	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
			dropped++
			metrics.IncBusDrop(topic)
			logDrop(topic, "full")
		}
	}
	return dropped
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	ch := make(chan interface{}, SubscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.subs[topic] = append(b.subs[topic], ch)

	return &memSub{b: b, topic: topic, ch: ch}, nil
}

// Close closes every subscription channel. Later publishes fail with ErrClosed.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, lst := range b.subs {
		for _, ch := range lst {
			close(ch)
		}
		delete(b.subs, topic)
	}
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan interface{}
	once  sync.Once
}

func (s *memSub) C() <-chan interface{} {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		lst := s.b.subs[s.topic]
		out := lst[:0]
		found := false
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			} else {
				found = true
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		// Bus.Close already closed the channel of every live subscription.
		if found {
			close(s.ch)
		}
	})
	return nil
}

var _ ports.Bus = (*MemoryBus)(nil)
