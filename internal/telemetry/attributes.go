// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
)

// Attribute keys for deck spans.
const (
	PlaybackStatusKey     = "deck.playback.status"
	PlaybackGenerationKey = "deck.playback.generation"
	PlaybackTrackKey      = "deck.playback.track_id"
	PlaylistIndexKey      = "deck.playlist.index"
	RecordingStatusKey    = "deck.recording.status"
	RecordingCountKey     = "deck.recording.count"
)

// PlaylistAttributes describes the playlist state after a command.
func PlaylistAttributes(snap model.PlaylistSnapshot) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(PlaylistIndexKey, snap.CurrentIndex),
		attribute.String(PlaybackStatusKey, string(snap.Playback.Status)),
		attribute.Int64(PlaybackGenerationKey, int64(snap.Playback.Generation)),
	}
	if snap.Playback.Track != nil {
		attrs = append(attrs, attribute.String(PlaybackTrackKey, snap.Playback.Track.ID))
	}
	return attrs
}

// RecordingAttributes describes the recording session state.
func RecordingAttributes(snap model.RecordingSnapshot) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RecordingStatusKey, string(snap.Status)),
		attribute.Int(RecordingCountKey, len(snap.Recordings)),
	}
}
