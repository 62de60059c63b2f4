// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package manager composes the playback and recording sessions into a Deck,
// the single entry point used by the HTTP API and the shell.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/playback"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	"github.com/ManuGH/mediadeck/internal/domain/session/recording"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

// ErrRecordingActive is returned when playback is requested while an exclusive
// recording holds the deck.
var ErrRecordingActive = errors.New("recording in progress")

// Publisher fans session snapshots out to observers without blocking.
type Publisher interface {
	TryPublish(topic string, event interface{}) int
}

// Config tunes the deck policies.
type Config struct {
	// ListLimit caps how many audio assets a refresh lists. Zero lists all.
	ListLimit int
	// ExclusiveRecording stops playback before a recording starts and refuses
	// playback while recording.
	ExclusiveRecording bool
}

// LibraryEvent is published on ports.TopicLibrary after a refresh.
type LibraryEvent struct {
	Tracks []model.Track `json:"tracks"`
}

// Deck owns one playlist controller and one recording session on a shared engine.
type Deck struct {
	cfg      Config
	provider ports.MediaAssetProvider
	resume   ports.ResumeStore
	pub      Publisher
	logger   zerolog.Logger

	session  *playback.Session
	playlist *playback.Controller
	recorder *recording.Session
	registry *Registry

	// exclusiveMu orders playback-starting commands against StartRecording,
	// including its permission request.
	exclusiveMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Deck.
type Option func(*deckOptions)

type deckOptions struct {
	resume ports.ResumeStore
	pub    Publisher
	logger *zerolog.Logger
	parent context.Context
}

// WithResumeStore persists stop positions. The deck closes the store on Close.
func WithResumeStore(store ports.ResumeStore) Option {
	return func(o *deckOptions) { o.resume = store }
}

// WithPublisher publishes every session snapshot.
func WithPublisher(p Publisher) Option {
	return func(o *deckOptions) { o.pub = p }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *deckOptions) { o.logger = &l }
}

// WithContext sets the parent context of supervised goroutines.
func WithContext(ctx context.Context) Option {
	return func(o *deckOptions) { o.parent = ctx }
}

// NewDeck wires the sessions to engine and provider.
func NewDeck(engine ports.AudioEngine, provider ports.MediaAssetProvider, cfg Config, opts ...Option) *Deck {
	if engine == nil {
		panic("invariant violation: engine is nil in manager.NewDeck")
	}
	if provider == nil {
		panic("invariant violation: provider is nil in manager.NewDeck")
	}
	o := deckOptions{parent: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Deck{
		cfg:      cfg,
		provider: provider,
		resume:   o.resume,
		pub:      o.pub,
		logger:   mdlog.WithComponent("deck"),
		registry: NewRegistry(o.parent),
	}
	if o.logger != nil {
		d.logger = *o.logger
	}

	d.session = playback.NewSession(engine, playback.WithObserver(d.publishPlayback))
	var ctrlOpts []playback.ControllerOption
	if d.resume != nil {
		ctrlOpts = append(ctrlOpts, playback.WithResumeStore(d.resume))
	}
	d.playlist = playback.NewController(d.session, ctrlOpts...)
	d.recorder = recording.NewSession(engine, provider, recording.WithObserver(d.publishRecording))
	return d
}

func (d *Deck) publishPlayback(snap model.PlaybackSnapshot) {
	if d.pub != nil {
		d.pub.TryPublish(ports.TopicPlayback, snap)
	}
}

func (d *Deck) publishRecording(snap model.RecordingSnapshot) {
	if d.pub != nil {
		d.pub.TryPublish(ports.TopicRecording, snap)
	}
}

// Go runs fn under the deck's supervision until Close.
func (d *Deck) Go(name string, fn func(ctx context.Context) error) error {
	return d.registry.Go(name, fn)
}

// Workers returns the live supervised goroutines by name.
func (d *Deck) Workers() map[string]int {
	return d.registry.Running()
}

// RefreshTracks asks for audio library access and replaces the track list.
func (d *Deck) RefreshTracks(ctx context.Context) ([]model.Track, error) {
	perm, err := d.provider.RequestPermission(ctx, model.AssetAudio)
	if err != nil {
		return nil, fmt.Errorf("audio permission: %w", err)
	}
	if perm != model.PermissionGranted {
		d.logger.Warn().Str(mdlog.FieldAssetKind, string(model.AssetAudio)).Msg("library permission denied")
		return nil, fmt.Errorf("audio library: %w", model.ErrPermissionDenied)
	}

	assets, err := d.provider.ListAssets(ctx, model.AssetAudio, d.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list audio assets: %w", err)
	}
	tracks := make([]model.Track, len(assets))
	for i, a := range assets {
		tracks[i] = model.Track{ID: a.ID, URI: a.URI, Filename: a.Filename}
	}
	if err := d.playlist.SetTracks(ctx, tracks); err != nil {
		d.logger.Warn().Err(err).Msg("selection dropped during refresh")
	}
	d.logger.Info().Int("count", len(tracks)).Msg("track list refreshed")
	if d.pub != nil {
		d.pub.TryPublish(ports.TopicLibrary, LibraryEvent{Tracks: tracks})
	}
	return tracks, nil
}

// Playlist returns the playlist state, including the playback snapshot.
func (d *Deck) Playlist() model.PlaylistSnapshot {
	return d.playlist.Snapshot()
}

// Playback returns the playback session state.
func (d *Deck) Playback() model.PlaybackSnapshot {
	return d.session.Snapshot()
}

// Recordings returns the recording session state.
func (d *Deck) Recordings() model.RecordingSnapshot {
	return d.recorder.Snapshot()
}

// guarded runs a playback-starting command unless an exclusive recording holds
// the deck. The check and the command happen under exclusiveMu.
func (d *Deck) guarded(fn func() error) error {
	d.exclusiveMu.Lock()
	defer d.exclusiveMu.Unlock()
	if d.cfg.ExclusiveRecording && d.recorder.Active() {
		return ErrRecordingActive
	}
	return fn()
}

// Select plays the track at index. Out-of-range indexes are ignored.
func (d *Deck) Select(ctx context.Context, index int) error {
	return d.guarded(func() error { return d.playlist.SelectTrack(ctx, index) })
}

// Next moves to the following track, if any.
func (d *Deck) Next(ctx context.Context) error {
	return d.guarded(func() error { return d.playlist.Next(ctx) })
}

// Previous moves to the preceding track, if any.
func (d *Deck) Previous(ctx context.Context) error {
	return d.guarded(func() error { return d.playlist.Previous(ctx) })
}

// Pause pauses playback.
func (d *Deck) Pause(ctx context.Context) error {
	return d.playlist.Pause(ctx)
}

// Resume continues a paused track in place, or reloads the selected track
// at its last position when nothing is paused.
func (d *Deck) Resume(ctx context.Context) error {
	return d.guarded(func() error {
		if d.session.Status() == model.PlaybackPaused {
			return d.session.Resume(ctx)
		}
		return d.playlist.Resume(ctx)
	})
}

// Stop stops playback and keeps the position.
func (d *Deck) Stop(ctx context.Context) error {
	return d.playlist.Stop(ctx)
}

// Exit stops playback and returns to the list view.
func (d *Deck) Exit(ctx context.Context) error {
	return d.playlist.Exit(ctx)
}

// StartRecording starts a capture, stopping playback first under the exclusive
// policy. Playback commands wait until the start settles.
func (d *Deck) StartRecording(ctx context.Context) error {
	d.exclusiveMu.Lock()
	defer d.exclusiveMu.Unlock()
	if d.cfg.ExclusiveRecording && d.session.Loaded() {
		d.logger.Info().Msg("stopping playback before recording")
		if err := d.playlist.Stop(ctx); err != nil {
			return fmt.Errorf("stop playback before recording: %w", err)
		}
	}
	return d.recorder.Start(ctx)
}

// StopRecording finalizes the capture and returns the new recording.
func (d *Deck) StopRecording(ctx context.Context) (model.Recording, error) {
	return d.recorder.Stop(ctx)
}

// PlayRecording plays the recording at index through the playback session.
func (d *Deck) PlayRecording(ctx context.Context, index int) (model.Recording, error) {
	rec, ok := d.recorder.Recording(index)
	if !ok {
		return model.Recording{}, fmt.Errorf("recording %d: %w", index, model.ErrOutOfRange)
	}
	return rec, d.guarded(func() error {
		d.logger.Info().Str(mdlog.FieldRecordingID, rec.ID).Msg("playing recording")
		return d.playlist.PlayTrack(ctx, rec.AsTrack())
	})
}

// Close stops the supervised goroutines, finalizes an active recording,
// releases playback and closes the resume store.
func (d *Deck) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		var errs []error
		if err := d.registry.CloseAndWait(ctx); err != nil {
			errs = append(errs, err)
		}
		if d.recorder.Status() == model.RecordingActive {
			if _, err := d.recorder.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("finalize recording: %w", err))
			}
		}
		if err := d.playlist.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop playback: %w", err))
		}
		d.session.Close()
		if d.resume != nil {
			if err := d.resume.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close resume store: %w", err))
			}
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}
