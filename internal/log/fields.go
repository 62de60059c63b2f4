// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldTrackID       = "track_id"
	FieldRecordingID   = "recording_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOp        = "op"

	// State fields
	FieldOldState   = "old_state"
	FieldNewState   = "new_state"
	FieldGeneration = "generation"
	FieldIndex      = "index"

	// Media fields
	FieldURI        = "uri"
	FieldPositionMs = "position_ms"
	FieldDurationMs = "duration_ms"
	FieldOffsetMs   = "offset_ms"
	FieldAssetKind  = "asset_kind"
	FieldSampleRate = "sample_rate"
	FieldPath       = "path"
	FieldListenAddr = "listen_addr"
)
