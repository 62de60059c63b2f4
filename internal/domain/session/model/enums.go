// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// PlaybackStatus is the observable lifecycle of the single playback slot.
type PlaybackStatus string

const (
	PlaybackIdle    PlaybackStatus = "IDLE"
	PlaybackLoading PlaybackStatus = "LOADING"
	PlaybackPlaying PlaybackStatus = "PLAYING"
	PlaybackPaused  PlaybackStatus = "PAUSED"
	PlaybackStopped PlaybackStatus = "STOPPED"
	PlaybackError   PlaybackStatus = "ERROR"
)

// RecordingStatus is the observable lifecycle of the single recording slot.
type RecordingStatus string

const (
	RecordingIdle              RecordingStatus = "IDLE"
	RecordingPermissionPending RecordingStatus = "PERMISSION_PENDING"
	RecordingActive            RecordingStatus = "RECORDING"
	RecordingFinalizing        RecordingStatus = "FINALIZING"
	RecordingError             RecordingStatus = "ERROR"
)

// AssetKind selects the media library a permission or listing applies to.
type AssetKind string

const (
	AssetAudio      AssetKind = "audio"
	AssetPhoto      AssetKind = "photo"
	AssetVideo      AssetKind = "video"
	AssetMicrophone AssetKind = "microphone"
)

// Valid reports whether k is one of the known asset kinds.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetAudio, AssetPhoto, AssetVideo, AssetMicrophone:
		return true
	}
	return false
}

// Permission is the outcome of a permission request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Generation tags every load request. Zero means no load was ever issued.
type Generation uint64
