// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	require.NoError(t, p.Shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "test", ExporterType: "invalid"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "mediadeck-test",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, p.tp)
	assert.Equal(t, "AlwaysOffSampler", p.sampler.Description())

	// Unsampled spans never reach the unreachable endpoint.
	_, span := Tracer("test").Start(context.Background(), "unsampled")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	otel.SetTracerProvider(noop.NewTracerProvider())
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", samplerFor(1).Description())
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestPlaylistAttributes(t *testing.T) {
	snap := model.PlaylistSnapshot{
		CurrentIndex: 2,
		Playback: model.PlaybackSnapshot{
			Status:     model.PlaybackPlaying,
			Generation: 7,
			Track:      &model.Track{ID: "t-2"},
		},
	}
	attrs := PlaylistAttributes(snap)
	assert.Contains(t, attrs, attribute.Int(PlaylistIndexKey, 2))
	assert.Contains(t, attrs, attribute.String(PlaybackStatusKey, "PLAYING"))
	assert.Contains(t, attrs, attribute.Int64(PlaybackGenerationKey, 7))
	assert.Contains(t, attrs, attribute.String(PlaybackTrackKey, "t-2"))

	rec := RecordingAttributes(model.RecordingSnapshot{Status: model.RecordingIdle, Recordings: []model.Recording{{ID: "a"}}})
	assert.Contains(t, rec, attribute.Int(RecordingCountKey, 1))
}
