// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrEngineLoad       = errors.New("engine load failure")
	ErrEngineRecord     = errors.New("engine record failure")
	ErrEnginePlayback   = errors.New("engine playback failure")
	// ErrOutOfRange is never returned by navigation; it classifies ignored commands.
	ErrOutOfRange = errors.New("navigation out of range")
	// ErrStaleEvent is internal and never surfaced to callers.
	ErrStaleEvent = errors.New("stale status event discarded")
	// ErrResumeUnsupported is returned by engines without in-place resume.
	ErrResumeUnsupported = errors.New("engine does not support native resume")
	ErrNothingLoaded     = errors.New("no track loaded")
	ErrNotRecording      = errors.New("no recording in progress")
)

// MicrophonePermissionMessage is surfaced when microphone access is denied.
const MicrophonePermissionMessage = "Please grant permission to app to access microphone"
