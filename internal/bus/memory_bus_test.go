// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/metrics"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestMemoryBusDelivers(t *testing.T) {
	b := NewMemoryBus()
	a, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	c, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	other, err := b.Subscribe(context.Background(), "other")
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), "topic", "hello"))
	require.Equal(t, "hello", <-a.C())
	require.Equal(t, "hello", <-c.C())
	require.Len(t, other.C(), 0)
}

func TestMemoryBusPublishContextTimeoutIncrementsDropMetrics(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	// Fill subscriber channel to capacity so next publish blocks.
	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", "msg"))
	}

	initial := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = b.Publish(ctx, "topic", "blocked")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	final := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))
	require.Greater(t, final, initial, "expected reasoned bus drop counter to increase")
}

func TestMemoryBusTryPublishDropsWhenFull(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "full-topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	for i := 0; i < SubscriberBuffer; i++ {
		require.Zero(t, b.TryPublish("full-topic", i))
	}
	initial := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("full-topic", "full"))
	require.Equal(t, 1, b.TryPublish("full-topic", "overflow"))
	require.Equal(t, initial+1, getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("full-topic", "full")))
}

func TestMemoryBusPublishRejectsNilContext(t *testing.T) {
	b := NewMemoryBus()
	//nolint:staticcheck // nil context is the case under test
	err := b.Publish(nil, "topic", "msg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "context is nil")
}

func TestMemoryBusCloseEndsSubscriptions(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)

	b.Close()
	_, ok := <-sub.C()
	require.False(t, ok)
	require.NoError(t, sub.Close(), "closing after bus close must not panic")

	require.ErrorIs(t, b.Publish(context.Background(), "topic", "x"), ErrClosed)
	_, err = b.Subscribe(context.Background(), "topic")
	require.ErrorIs(t, err, ErrClosed)
}

func TestMemoryBusSubscriptionCloseIsIdempotent(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	require.NoError(t, b.Publish(context.Background(), "topic", "nobody listening"))
}
