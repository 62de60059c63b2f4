// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// Track is a listed, playable audio asset reference.
type Track struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	Filename string `json:"filename"`
}

// Recording is a locally produced audio artifact from a completed capture.
type Recording struct {
	ID             string `json:"id"`
	SourceURI      string `json:"sourceUri"`
	DurationMillis int64  `json:"durationMillis"`
}

// Duration returns the formatted "m:ss" length of the recording.
func (r Recording) Duration() string {
	return FormatDuration(r.DurationMillis)
}

// AsTrack exposes the recording as a playable track.
func (r Recording) AsTrack() Track {
	return Track{ID: r.ID, URI: r.SourceURI, Filename: r.ID}
}

// PlaybackSnapshot is a consistent copy of the playback session state.
type PlaybackSnapshot struct {
	Status         PlaybackStatus `json:"status"`
	Generation     Generation     `json:"generation"`
	Track          *Track         `json:"track,omitempty"`
	PositionMillis int64          `json:"positionMillis"`
	HasPosition    bool           `json:"hasPosition"`
	LastError      string         `json:"lastError,omitempty"`
}

// NoIndex marks a playlist with no selected track.
const NoIndex = -1

// PlaylistSnapshot is a consistent copy of the playlist controller state.
type PlaylistSnapshot struct {
	Tracks         []Track          `json:"tracks"`
	CurrentIndex   int              `json:"currentIndex"`
	PositionMillis *int64           `json:"positionMillis,omitempty"`
	Playback       PlaybackSnapshot `json:"playback"`
}

// RecordingSnapshot is a consistent copy of the recording session state.
type RecordingSnapshot struct {
	Status     RecordingStatus `json:"status"`
	Recordings []Recording     `json:"recordings"`
	LastError  string          `json:"lastError,omitempty"`
}
