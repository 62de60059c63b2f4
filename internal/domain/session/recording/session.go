// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recording owns the single microphone capture slot and the list of
// finished recordings produced by it.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/lifecycle"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/metrics"
)

// Observer receives a snapshot after every observable state change.
type Observer func(model.RecordingSnapshot)

// Session drives the recording lifecycle against an AudioEngine.
// Start and Stop are serialized by cmdMu, which is held across engine calls.
type Session struct {
	engine   ports.AudioEngine
	provider ports.MediaAssetProvider
	newID    func() string
	logger   zerolog.Logger
	observer Observer

	cmdMu sync.Mutex

	mu         sync.Mutex
	status     model.RecordingStatus
	permitted  bool
	recordings []model.Recording
	lastErr    error
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn for state change notifications.
func WithObserver(fn Observer) Option {
	return func(s *Session) { s.observer = fn }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithIDGenerator overrides how recording IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// NewSession creates an idle recording session with no recordings.
func NewSession(engine ports.AudioEngine, provider ports.MediaAssetProvider, opts ...Option) *Session {
	if engine == nil {
		panic("invariant violation: engine is nil in recording.NewSession")
	}
	if provider == nil {
		panic("invariant violation: provider is nil in recording.NewSession")
	}
	s := &Session{
		engine:   engine,
		provider: provider,
		newID:    uuid.NewString,
		logger:   mdlog.WithComponent("recording"),
		status:   lifecycle.Recording.Initial(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a capture. Permission is requested on the first start and again
// after any denial; a denial leaves the session in Error with nothing recorded.
func (s *Session) Start(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.recoverLocked()
	if s.status != model.RecordingIdle {
		st := s.status
		s.mu.Unlock()
		return fmt.Errorf("start in %s: %w", st, lifecycle.ErrIllegalTransition)
	}
	s.lastErr = nil
	permitted := s.permitted
	var snap model.RecordingSnapshot
	if !permitted {
		_ = s.transitionLocked(lifecycle.EvRecordRequested)
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !permitted {
		s.notify(snap)
		if err := s.requestPermission(ctx); err != nil {
			return err
		}
	}

	if err := s.engine.StartRecording(ctx); err != nil {
		metrics.IncEngineFailure("start_recording")
		return s.fail(lifecycle.EvRecordFailed, fmt.Errorf("%w: start: %w", model.ErrEngineRecord, err))
	}

	s.mu.Lock()
	_ = s.transitionLocked(lifecycle.EvRecordingStarted)
	snap = s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Str(mdlog.FieldEvent, "recording.started").Msg("recording started")
	s.notify(snap)
	return nil
}

func (s *Session) requestPermission(ctx context.Context) error {
	perm, err := s.provider.RequestPermission(ctx, model.AssetMicrophone)
	if err != nil {
		metrics.IncPermissionDecision(string(model.AssetMicrophone), "error")
		return s.fail(lifecycle.EvRecordFailed, fmt.Errorf("request microphone permission: %w", err))
	}
	if perm != model.PermissionGranted {
		metrics.IncPermissionDecision(string(model.AssetMicrophone), string(model.PermissionDenied))
		return s.fail(lifecycle.EvPermissionDenied, fmt.Errorf("%w: %s", model.ErrPermissionDenied, model.MicrophonePermissionMessage))
	}
	metrics.IncPermissionDecision(string(model.AssetMicrophone), string(model.PermissionGranted))

	s.mu.Lock()
	s.permitted = true
	s.mu.Unlock()
	return nil
}

// Stop finalizes the active capture and appends the resulting recording.
// A failed finalize appends nothing and leaves the session in Error.
func (s *Session) Stop(ctx context.Context) (model.Recording, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	if !lifecycle.Recording.Can(s.status, lifecycle.EvStopRequested) {
		st := s.status
		s.mu.Unlock()
		return model.Recording{}, fmt.Errorf("stop in %s: %w", st, model.ErrNotRecording)
	}
	_ = s.transitionLocked(lifecycle.EvStopRequested)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	clip, err := s.engine.StopRecording(ctx)
	if err == nil && clip.URI == "" {
		err = errors.New("engine returned no recording uri")
	}
	if err != nil {
		metrics.IncRecordingFinalized("error")
		return model.Recording{}, s.fail(lifecycle.EvFinalizeFailed, fmt.Errorf("%w: finalize: %w", model.ErrEngineRecord, err))
	}

	rec := model.Recording{
		ID:             s.newID(),
		SourceURI:      clip.URI,
		DurationMillis: max(clip.DurationMillis, 0),
	}

	s.mu.Lock()
	s.recordings = append(s.recordings, rec)
	_ = s.transitionLocked(lifecycle.EvFinalized)
	snap = s.snapshotLocked()
	s.mu.Unlock()

	metrics.IncRecordingFinalized("ok")
	s.logger.Info().
		Str(mdlog.FieldRecordingID, rec.ID).
		Str(mdlog.FieldURI, rec.SourceURI).
		Int64(mdlog.FieldDurationMs, rec.DurationMillis).
		Str(mdlog.FieldEvent, "recording.finalized").
		Msg("recording finalized")
	s.notify(snap)
	return rec, nil
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() model.RecordingSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the current recording status.
func (s *Session) Status() model.RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Recording returns the recording at index in creation order.
func (s *Session) Recording(index int) (model.Recording, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.recordings) {
		return model.Recording{}, false
	}
	return s.recordings[index], true
}

// Active reports whether a capture resource is alive.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == model.RecordingActive || s.status == model.RecordingFinalizing
}

func (s *Session) fail(ev lifecycle.EventKind, err error) error {
	s.mu.Lock()
	if tErr := s.transitionLocked(ev); tErr != nil {
		s.mu.Unlock()
		return errors.Join(err, tErr)
	}
	s.lastErr = err
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn().Err(err).Str(mdlog.FieldEvent, "recording.failed").Msg("recording failed")
	s.notify(snap)
	return err
}

func (s *Session) recoverLocked() {
	if s.status != model.RecordingError {
		return
	}
	_ = s.transitionLocked(lifecycle.EvReset)
}

func (s *Session) transitionLocked(ev lifecycle.EventKind) error {
	tr, err := lifecycle.Dispatch(lifecycle.Recording, &s.status, ev)
	if err != nil {
		s.logger.Warn().Err(err).Str(mdlog.FieldEvent, ev.String()).Msg("rejected recording transition")
		return err
	}
	s.logger.Debug().
		Str(mdlog.FieldOldState, string(tr.From)).
		Str(mdlog.FieldNewState, string(tr.To)).
		Str(mdlog.FieldEvent, ev.String()).
		Msg("recording state changed")
	return nil
}

func (s *Session) snapshotLocked() model.RecordingSnapshot {
	snap := model.RecordingSnapshot{
		Status:     s.status,
		Recordings: append([]model.Recording{}, s.recordings...),
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

func (s *Session) notify(snap model.RecordingSnapshot) {
	if s.observer != nil {
		s.observer(snap)
	}
}
