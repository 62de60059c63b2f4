// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// EventKind is a domain event in the playback or recording lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota

	// Playback
	EvLoadRequested
	EvPlaybackStarted
	EvLoadFailed
	EvPauseRequested
	EvResumeRequested
	EvTrackEnded
	EvEngineFailed

	// Recording
	EvRecordRequested
	EvRecordingStarted
	EvPermissionDenied
	EvRecordFailed
	EvFinalized
	EvFinalizeFailed

	// Shared
	EvStopRequested
	EvReset
)

var eventNames = map[EventKind]string{
	EvUnknown:          "unknown",
	EvLoadRequested:    "load_requested",
	EvPlaybackStarted:  "playback_started",
	EvLoadFailed:       "load_failed",
	EvPauseRequested:   "pause_requested",
	EvResumeRequested:  "resume_requested",
	EvTrackEnded:       "track_ended",
	EvEngineFailed:     "engine_failed",
	EvRecordRequested:  "record_requested",
	EvRecordingStarted: "recording_started",
	EvPermissionDenied: "permission_denied",
	EvRecordFailed:     "record_failed",
	EvFinalized:        "finalized",
	EvFinalizeFailed:   "finalize_failed",
	EvStopRequested:    "stop_requested",
	EvReset:            "reset",
}

func (e EventKind) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}
