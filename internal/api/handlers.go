// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/telemetry"
)

// RecordingView is a recording with its formatted duration.
type RecordingView struct {
	model.Recording
	Duration string `json:"duration"`
}

// RecordingsResponse is the body of GET /recordings.
type RecordingsResponse struct {
	Status     model.RecordingStatus `json:"status"`
	Recordings []RecordingView       `json:"recordings"`
	LastError  string                `json:"lastError,omitempty"`
}

func recordingView(r model.Recording) RecordingView {
	return RecordingView{Recording: r, Duration: r.Duration()}
}

func indexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("index %q is not an integer", raw)
	}
	return index, nil
}

func (s *Server) writePlaylist(w http.ResponseWriter, r *http.Request) {
	snap := s.deck.Playlist()
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.PlaylistAttributes(snap)...)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeRecordings(w http.ResponseWriter, r *http.Request, code int) {
	snap := s.deck.Recordings()
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.RecordingAttributes(snap)...)
	writeJSON(w, code, recordingsResponse(snap))
}

// command adapts a parameterless deck command and answers with the playlist state.
func (s *Server) command(fn func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		s.writePlaylist(w, r)
	}
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks := s.deck.Playlist().Tracks
	if tracks == nil {
		tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleRefreshTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.deck.RefreshTracks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleGetPlayback(w http.ResponseWriter, r *http.Request) {
	s.writePlaylist(w, r)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := s.deck.Select(r.Context(), index); err != nil {
		writeError(w, r, err)
		return
	}
	s.writePlaylist(w, r)
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	s.writeRecordings(w, r, http.StatusOK)
}

func recordingsResponse(snap model.RecordingSnapshot) RecordingsResponse {
	out := RecordingsResponse{
		Status:     snap.Status,
		Recordings: make([]RecordingView, len(snap.Recordings)),
		LastError:  snap.LastError,
	}
	for i, rec := range snap.Recordings {
		out.Recordings[i] = recordingView(rec)
	}
	return out
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.deck.StartRecording(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeRecordings(w, r, http.StatusAccepted)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deck.StopRecording(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordingView(rec))
}

func (s *Server) handlePlayRecording(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if _, err := s.deck.PlayRecording(r.Context(), index); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deck.Playback())
}
