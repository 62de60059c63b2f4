// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/metrics"
)

// Playback is the playback session state machine.
var Playback = &Machine[model.PlaybackStatus]{
	name:    "playback",
	initial: model.PlaybackIdle,
	states: []model.PlaybackStatus{
		model.PlaybackIdle,
		model.PlaybackLoading,
		model.PlaybackPlaying,
		model.PlaybackPaused,
		model.PlaybackStopped,
		model.PlaybackError,
	},
	table: []Transition[model.PlaybackStatus]{
		// Load path; a new load supersedes whatever was loaded before
		{From: model.PlaybackIdle, To: model.PlaybackLoading, Event: EvLoadRequested},
		{From: model.PlaybackLoading, To: model.PlaybackLoading, Event: EvLoadRequested},
		{From: model.PlaybackPlaying, To: model.PlaybackLoading, Event: EvLoadRequested},
		{From: model.PlaybackPaused, To: model.PlaybackLoading, Event: EvLoadRequested},
		{From: model.PlaybackStopped, To: model.PlaybackLoading, Event: EvLoadRequested},
		{From: model.PlaybackLoading, To: model.PlaybackPlaying, Event: EvPlaybackStarted},
		{From: model.PlaybackLoading, To: model.PlaybackError, Event: EvLoadFailed},

		// Transport
		{From: model.PlaybackPlaying, To: model.PlaybackPaused, Event: EvPauseRequested},
		{From: model.PlaybackPaused, To: model.PlaybackPlaying, Event: EvResumeRequested},

		// Stop keeps the position; natural end is observed from status ticks
		{From: model.PlaybackLoading, To: model.PlaybackStopped, Event: EvStopRequested},
		{From: model.PlaybackPlaying, To: model.PlaybackStopped, Event: EvStopRequested},
		{From: model.PlaybackPaused, To: model.PlaybackStopped, Event: EvStopRequested},
		{From: model.PlaybackPlaying, To: model.PlaybackStopped, Event: EvTrackEnded},

		// Engine failures after a successful load
		{From: model.PlaybackLoading, To: model.PlaybackError, Event: EvEngineFailed},
		{From: model.PlaybackPlaying, To: model.PlaybackError, Event: EvEngineFailed},
		{From: model.PlaybackPaused, To: model.PlaybackError, Event: EvEngineFailed},

		// Reset
		{From: model.PlaybackLoading, To: model.PlaybackIdle, Event: EvReset},
		{From: model.PlaybackPlaying, To: model.PlaybackIdle, Event: EvReset},
		{From: model.PlaybackPaused, To: model.PlaybackIdle, Event: EvReset},
		{From: model.PlaybackStopped, To: model.PlaybackIdle, Event: EvReset},
		{From: model.PlaybackError, To: model.PlaybackIdle, Event: EvReset},
	},
	onApply: func(from, to model.PlaybackStatus) {
		metrics.IncPlaybackTransition(string(from), string(to))
	},
}

// Recording is the recording session state machine.
var Recording = &Machine[model.RecordingStatus]{
	name:    "recording",
	initial: model.RecordingIdle,
	states: []model.RecordingStatus{
		model.RecordingIdle,
		model.RecordingPermissionPending,
		model.RecordingActive,
		model.RecordingFinalizing,
		model.RecordingError,
	},
	table: []Transition[model.RecordingStatus]{
		// Start path
		{From: model.RecordingIdle, To: model.RecordingPermissionPending, Event: EvRecordRequested},
		{From: model.RecordingIdle, To: model.RecordingActive, Event: EvRecordingStarted},
		{From: model.RecordingPermissionPending, To: model.RecordingActive, Event: EvRecordingStarted},
		{From: model.RecordingPermissionPending, To: model.RecordingError, Event: EvPermissionDenied},
		{From: model.RecordingIdle, To: model.RecordingError, Event: EvRecordFailed},
		{From: model.RecordingPermissionPending, To: model.RecordingError, Event: EvRecordFailed},

		// Stop and finalize
		{From: model.RecordingActive, To: model.RecordingFinalizing, Event: EvStopRequested},
		{From: model.RecordingFinalizing, To: model.RecordingIdle, Event: EvFinalized},
		{From: model.RecordingFinalizing, To: model.RecordingError, Event: EvFinalizeFailed},

		// Recovery
		{From: model.RecordingError, To: model.RecordingIdle, Event: EvReset},
	},
	onApply: func(from, to model.RecordingStatus) {
		metrics.IncRecordingTransition(string(from), string(to))
	},
}
