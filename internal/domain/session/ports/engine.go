// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
)

// LoadRequest asks the engine to release whatever it holds and load uri.
// Every status event produced by the resulting resource carries Generation.
type LoadRequest struct {
	Generation        model.Generation
	URI               string
	StartOffsetMillis int64
}

// StatusEvent is a periodic tick for the currently loaded resource.
type StatusEvent struct {
	Generation     model.Generation
	PositionMillis int64
	IsPlaying      bool
	IsLoaded       bool
}

// StatusFunc receives engine status events. It may be called from any goroutine.
type StatusFunc func(StatusEvent)

// Clip is the finalized output of a recording.
type Clip struct {
	URI            string
	DurationMillis int64
}

// AudioEngine is the decode/playback/record primitive.
// Implementations hold at most one playback resource and one recording resource.
type AudioEngine interface {
	// Load releases any previously loaded resource and loads req.URI at the offset.
	Load(ctx context.Context, req LoadRequest) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	// Resume continues a paused resource in place or returns model.ErrResumeUnsupported.
	Resume(ctx context.Context) error
	// Stop releases the loaded playback resource. Stopping with nothing loaded is not an error.
	Stop(ctx context.Context) error
	// SubscribeStatus registers fn for status events; the returned func unsubscribes.
	SubscribeStatus(fn StatusFunc) (cancel func())

	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (Clip, error)
}
