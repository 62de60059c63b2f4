// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/lifecycle"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/metrics"
)

// Observer receives a snapshot after every observable state change.
type Observer func(model.PlaybackSnapshot)

// Session mediates one logical loaded track against the audio engine.
//
// Commands are serialized by cmdMu, which is held across engine calls.
// Engine status callbacks only take mu, so they never wait on the engine.
type Session struct {
	engine   ports.AudioEngine
	logger   zerolog.Logger
	observer Observer

	cmdMu sync.Mutex

	mu       sync.Mutex
	status   model.PlaybackStatus
	gen      model.Generation
	track    *model.Track
	position int64
	hasPos   bool
	reported bool
	loaded   bool
	inflight lifecycle.EventKind
	lastErr  error

	unsubscribe func()
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn to be called with every state change.
func WithObserver(fn Observer) Option {
	return func(s *Session) { s.observer = fn }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session and subscribes to engine status events.
func NewSession(engine ports.AudioEngine, opts ...Option) *Session {
	if engine == nil {
		panic("invariant violation: engine is nil in playback.NewSession")
	}
	s := &Session{
		engine: engine,
		logger: mdlog.WithComponent("playback"),
		status: lifecycle.Playback.Initial(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = engine.SubscribeStatus(s.HandleStatus)
	return s
}

// Close detaches the session from engine status events.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() model.PlaybackSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the current playback status.
func (s *Session) Status() model.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Position returns the last known position and whether one is recorded.
func (s *Session) Position() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position, s.hasPos
}

// ReportedPosition returns the position of trackID as last reported by the
// engine. It is false until a status event arrives for the current load.
func (s *Session) ReportedPosition(trackID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil || s.track.ID != trackID || !s.reported {
		return 0, false
	}
	return s.position, true
}

// Loaded reports whether the engine holds a playback resource for the session,
// including a track that ended on its own.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Load releases the previous resource and loads track at startOffsetMillis.
// A failed load leaves the session in Error; a later Load retries with a fresh generation.
func (s *Session) Load(ctx context.Context, track model.Track, startOffsetMillis int64) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.load(ctx, track, startOffsetMillis)
}

func (s *Session) load(ctx context.Context, track model.Track, offset int64) error {
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	s.recoverLocked()
	if err := s.transitionLocked(lifecycle.EvLoadRequested); err != nil {
		s.mu.Unlock()
		return err
	}
	s.gen++
	g := s.gen
	t := track
	s.track = &t
	s.position, s.hasPos = offset, true
	s.reported = false
	release := s.loaded
	s.loaded = false
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	logger := s.logger.With().
		Uint64(mdlog.FieldGeneration, uint64(g)).
		Str(mdlog.FieldTrackID, track.ID).
		Logger()

	if release {
		// Best effort: the engine releases on Load as well.
		if err := s.engine.Stop(ctx); err != nil {
			metrics.IncEngineFailure("release")
			logger.Warn().Err(err).Str(mdlog.FieldEvent, "playback.release_failed").Msg("failed to release previous resource")
		}
	}

	if err := s.engine.Load(ctx, ports.LoadRequest{Generation: g, URI: track.URI, StartOffsetMillis: offset}); err != nil {
		return s.fail(g, lifecycle.EvLoadFailed, "load", fmt.Errorf("%w: %s: %w", model.ErrEngineLoad, track.URI, err))
	}

	s.mu.Lock()
	if s.gen != g {
		s.mu.Unlock()
		return nil
	}
	s.loaded = true
	s.inflight = lifecycle.EvPlaybackStarted
	s.mu.Unlock()

	err := s.engine.Play(ctx)

	s.mu.Lock()
	s.inflight = lifecycle.EvUnknown
	s.mu.Unlock()

	if err != nil {
		return s.fail(g, lifecycle.EvEngineFailed, "play", fmt.Errorf("%w: play: %w", model.ErrEnginePlayback, err))
	}
	logger.Debug().Int64(mdlog.FieldOffsetMs, offset).Str(mdlog.FieldURI, track.URI).Msg("load requested")
	return nil
}

// Pause pauses a playing track.
func (s *Session) Pause(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.recoverLocked()
	if !lifecycle.Playback.Can(s.status, lifecycle.EvPauseRequested) {
		st := s.status
		s.mu.Unlock()
		return fmt.Errorf("pause in %s: %w", st, lifecycle.ErrIllegalTransition)
	}
	g := s.gen
	s.inflight = lifecycle.EvPauseRequested
	s.mu.Unlock()

	err := s.engine.Pause(ctx)

	s.mu.Lock()
	s.inflight = lifecycle.EvUnknown
	if err != nil {
		s.mu.Unlock()
		return s.fail(g, lifecycle.EvEngineFailed, "pause", fmt.Errorf("%w: pause: %w", model.ErrEnginePlayback, err))
	}
	// The track may have ended while the engine call was in flight.
	if s.gen == g && lifecycle.Playback.Can(s.status, lifecycle.EvPauseRequested) {
		_ = s.transitionLocked(lifecycle.EvPauseRequested)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Resume continues a paused track. Engines without in-place resume get a
// reload of the same track at the stored position.
func (s *Session) Resume(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.recoverLocked()
	if !lifecycle.Playback.Can(s.status, lifecycle.EvResumeRequested) {
		st := s.status
		s.mu.Unlock()
		return fmt.Errorf("resume in %s: %w", st, lifecycle.ErrIllegalTransition)
	}
	g := s.gen
	track := *s.track
	pos := s.position
	s.inflight = lifecycle.EvResumeRequested
	s.mu.Unlock()

	err := s.engine.Resume(ctx)

	s.mu.Lock()
	s.inflight = lifecycle.EvUnknown
	s.mu.Unlock()

	if errors.Is(err, model.ErrResumeUnsupported) {
		s.logger.Debug().
			Uint64(mdlog.FieldGeneration, uint64(g)).
			Int64(mdlog.FieldPositionMs, pos).
			Msg("native resume unsupported, reloading at position")
		return s.load(ctx, track, pos)
	}
	if err != nil {
		return s.fail(g, lifecycle.EvEngineFailed, "resume", fmt.Errorf("%w: resume: %w", model.ErrEnginePlayback, err))
	}

	s.mu.Lock()
	if s.gen == g && lifecycle.Playback.Can(s.status, lifecycle.EvResumeRequested) {
		_ = s.transitionLocked(lifecycle.EvResumeRequested)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Stop tears down the engine resource and keeps the position for a later reload.
// Stopping a session that holds nothing is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.recoverLocked()
	if !lifecycle.Playback.Can(s.status, lifecycle.EvStopRequested) {
		release := s.loaded
		s.loaded = false
		s.mu.Unlock()
		if release {
			// Naturally ended tracks still hold their resource.
			if err := s.engine.Stop(ctx); err != nil {
				metrics.IncEngineFailure("stop")
				s.logger.Warn().Err(err).Msg("failed to release ended track")
			}
		}
		return nil
	}
	// Ticks from the resource being torn down are stale from here on.
	s.gen++
	g := s.gen
	s.mu.Unlock()

	if err := s.engine.Stop(ctx); err != nil {
		return s.fail(g, lifecycle.EvEngineFailed, "stop", fmt.Errorf("%w: stop: %w", model.ErrEnginePlayback, err))
	}

	s.mu.Lock()
	s.loaded = false
	_ = s.transitionLocked(lifecycle.EvStopRequested)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Reset releases any resource and returns the session to Idle with no track.
func (s *Session) Reset(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	release := s.loaded
	s.loaded = false
	s.gen++
	if s.status != model.PlaybackIdle {
		_ = s.transitionLocked(lifecycle.EvReset)
	}
	s.track = nil
	s.position, s.hasPos = 0, false
	s.reported = false
	s.lastErr = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	var err error
	if release {
		if err = s.engine.Stop(ctx); err != nil {
			metrics.IncEngineFailure("reset")
			s.logger.Warn().Err(err).Msg("failed to release resource on reset")
			err = fmt.Errorf("%w: reset: %w", model.ErrEnginePlayback, err)
		}
	}
	s.notify(snap)
	return err
}

// HandleStatus applies an engine status event if it belongs to the current generation.
func (s *Session) HandleStatus(ev ports.StatusEvent) {
	s.mu.Lock()
	if ev.Generation != s.gen {
		current := s.gen
		s.mu.Unlock()
		metrics.IncStaleStatusEvent()
		s.logger.Debug().
			Uint64(mdlog.FieldGeneration, uint64(ev.Generation)).
			Uint64("current_generation", uint64(current)).
			Err(model.ErrStaleEvent).
			Msg("status event discarded")
		return
	}

	switch s.status {
	case model.PlaybackLoading, model.PlaybackPlaying, model.PlaybackPaused, model.PlaybackStopped:
	default:
		s.mu.Unlock()
		return
	}

	changed := s.position != ev.PositionMillis || !s.hasPos
	s.position, s.hasPos = ev.PositionMillis, true
	s.reported = true

	switch {
	case s.status == model.PlaybackLoading && ev.IsPlaying:
		_ = s.transitionLocked(lifecycle.EvPlaybackStarted)
		changed = true
	case s.status == model.PlaybackPlaying && ev.IsLoaded && !ev.IsPlaying && s.inflight == lifecycle.EvUnknown:
		// The engine has no finished event; a loaded but idle resource while playing means the track ended.
		_ = s.transitionLocked(lifecycle.EvTrackEnded)
		changed = true
	}

	if !changed {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// fail moves the session to Error for generation g unless it was superseded.
func (s *Session) fail(g model.Generation, ev lifecycle.EventKind, op string, err error) error {
	metrics.IncEngineFailure(op)

	s.mu.Lock()
	if s.gen != g {
		s.mu.Unlock()
		return err
	}
	if ev == lifecycle.EvLoadFailed {
		s.loaded = false
	}
	if tErr := s.transitionLocked(ev); tErr != nil {
		s.mu.Unlock()
		return errors.Join(err, tErr)
	}
	s.lastErr = err
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn().
		Err(err).
		Str(mdlog.FieldOp, op).
		Uint64(mdlog.FieldGeneration, uint64(g)).
		Str(mdlog.FieldEvent, "playback.engine_failed").
		Msg("playback engine call failed")
	s.notify(snap)
	return err
}

// recoverLocked returns an errored session to Idle ahead of the next command.
func (s *Session) recoverLocked() {
	if s.status != model.PlaybackError {
		return
	}
	_ = s.transitionLocked(lifecycle.EvReset)
	s.lastErr = nil
}

func (s *Session) transitionLocked(ev lifecycle.EventKind) error {
	tr, err := lifecycle.Dispatch(lifecycle.Playback, &s.status, ev)
	if err != nil {
		s.logger.Warn().Err(err).Str(mdlog.FieldEvent, ev.String()).Msg("rejected playback transition")
		return err
	}
	s.logger.Debug().
		Str(mdlog.FieldOldState, string(tr.From)).
		Str(mdlog.FieldNewState, string(tr.To)).
		Str(mdlog.FieldEvent, ev.String()).
		Uint64(mdlog.FieldGeneration, uint64(s.gen)).
		Msg("playback state changed")
	return nil
}

func (s *Session) snapshotLocked() model.PlaybackSnapshot {
	snap := model.PlaybackSnapshot{
		Status:         s.status,
		Generation:     s.gen,
		PositionMillis: s.position,
		HasPosition:    s.hasPos,
	}
	if s.track != nil {
		t := *s.track
		snap.Track = &t
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

func (s *Session) notify(snap model.PlaybackSnapshot) {
	if s.observer != nil {
		s.observer(snap)
	}
}
