// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package audio implements the audio engine on top of beep for playback and
// go-audio/wav for capture.
package audio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	platformfs "github.com/ManuGH/mediadeck/internal/platform/fs"
)

var (
	ErrUnsupportedURI = errors.New("unsupported media uri")
	ErrNoRecorder     = errors.New("no capture source configured")
)

// Recorder captures audio into a finished clip.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (ports.Clip, error)
}

// EngineConfig configures a BeepEngine.
type EngineConfig struct {
	SampleRate     int
	StatusInterval time.Duration
	// Volume is in powers of two relative to unity; 0 leaves the signal untouched.
	Volume float64
	// AllowedRoots confines loads to files under these directories. Empty allows any path.
	AllowedRoots []string
}

type resource struct {
	gen    model.Generation
	uri    string
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	ended  atomic.Bool
}

// BeepEngine plays one WAV resource at a time and reports its status on a fixed interval.
type BeepEngine struct {
	out        Output
	sampleRate beep.SampleRate
	interval   time.Duration
	volume     float64
	roots      []string
	recorder   Recorder
	clock      Clock
	logger     zerolog.Logger

	mu     sync.Mutex
	cur    *resource
	subs   map[int]ports.StatusFunc
	nextID int
}

// EngineOption configures a BeepEngine.
type EngineOption func(*BeepEngine)

// WithRecorder attaches a capture backend.
func WithRecorder(r Recorder) EngineOption {
	return func(e *BeepEngine) { e.recorder = r }
}

// WithEngineClock overrides the status tick clock.
func WithEngineClock(c Clock) EngineOption {
	return func(e *BeepEngine) { e.clock = c }
}

// NewBeepEngine creates an engine writing to out.
func NewBeepEngine(out Output, cfg EngineConfig, opts ...EngineOption) *BeepEngine {
	if out == nil {
		panic("invariant violation: output is nil in audio.NewBeepEngine")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 500 * time.Millisecond
	}
	e := &BeepEngine{
		out:        out,
		sampleRate: beep.SampleRate(cfg.SampleRate),
		interval:   cfg.StatusInterval,
		volume:     cfg.Volume,
		roots:      cfg.AllowedRoots,
		clock:      RealClock{},
		logger:     mdlog.WithComponent("audio"),
		subs:       make(map[int]ports.StatusFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PathFromURI maps a file URI or bare path to a filesystem path.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnsupportedURI, uri, err)
	}
	switch u.Scheme {
	case "":
		return uri, nil
	case "file":
		return u.Path, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
	}
}

func (e *BeepEngine) resolve(uri string) (string, error) {
	path, err := PathFromURI(uri)
	if err != nil {
		return "", err
	}
	if len(e.roots) == 0 {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	confined, err := platformfs.ConfineToRoots(e.roots, abs)
	if err != nil {
		return "", err
	}
	if err := platformfs.IsRegularFile(confined); err != nil {
		return "", err
	}
	return confined, nil
}

// Load decodes req.URI, seeks to the start offset and attaches it paused.
// Any previously loaded resource is released first.
func (e *BeepEngine) Load(ctx context.Context, req ports.LoadRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := e.resolve(req.URI)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	stream, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if req.StartOffsetMillis > 0 {
		pos := format.SampleRate.N(time.Duration(req.StartOffsetMillis) * time.Millisecond)
		if pos > stream.Len() {
			pos = stream.Len()
		}
		if err := stream.Seek(pos); err != nil {
			_ = stream.Close()
			return fmt.Errorf("seek %s to %dms: %w", path, req.StartOffsetMillis, err)
		}
	}

	var src beep.Streamer = stream
	if format.SampleRate != e.sampleRate {
		src = beep.Resample(4, format.SampleRate, e.sampleRate, stream)
	}
	res := &resource{
		gen:    req.Generation,
		uri:    req.URI,
		stream: stream,
		format: format,
		ctrl: &beep.Ctrl{
			Streamer: &effects.Volume{Streamer: src, Base: 2, Volume: e.volume},
			Paused:   true,
		},
	}
	e.cur = res
	e.out.Play(beep.Seq(res.ctrl, beep.Callback(func() {
		res.ended.Store(true)
	})))

	e.logger.Debug().
		Uint64(mdlog.FieldGeneration, uint64(req.Generation)).
		Str(mdlog.FieldURI, req.URI).
		Int(mdlog.FieldSampleRate, int(format.SampleRate)).
		Int64(mdlog.FieldOffsetMs, req.StartOffsetMillis).
		Msg("resource loaded")
	return nil
}

func (e *BeepEngine) setPaused(paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return model.ErrNothingLoaded
	}
	e.out.Lock()
	e.cur.ctrl.Paused = paused
	e.out.Unlock()
	return nil
}

func (e *BeepEngine) Play(ctx context.Context) error   { return e.setPaused(false) }
func (e *BeepEngine) Pause(ctx context.Context) error  { return e.setPaused(true) }
func (e *BeepEngine) Resume(ctx context.Context) error { return e.setPaused(false) }

// Stop releases the loaded resource. Stopping with nothing loaded is a no-op.
func (e *BeepEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	return nil
}

func (e *BeepEngine) releaseLocked() {
	if e.cur == nil {
		return
	}
	e.out.Clear()
	if err := e.cur.stream.Close(); err != nil {
		e.logger.Debug().Err(err).Str(mdlog.FieldURI, e.cur.uri).Msg("close released stream")
	}
	e.cur = nil
}

func (e *BeepEngine) SubscribeStatus(fn ports.StatusFunc) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

// Poll emits one status event for the loaded resource. Nothing is emitted
// when no resource is loaded.
func (e *BeepEngine) Poll() {
	e.mu.Lock()
	res := e.cur
	if res == nil {
		e.mu.Unlock()
		return
	}
	e.out.Lock()
	pos := res.stream.Position()
	paused := res.ctrl.Paused
	e.out.Unlock()

	ev := ports.StatusEvent{
		Generation:     res.gen,
		PositionMillis: res.format.SampleRate.D(pos).Milliseconds(),
		IsPlaying:      !paused && !res.ended.Load(),
		IsLoaded:       true,
	}
	subs := make([]ports.StatusFunc, 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Run polls status every interval until ctx is done.
func (e *BeepEngine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.clock.After(e.interval):
			e.Poll()
		}
	}
}

func (e *BeepEngine) StartRecording(ctx context.Context) error {
	if e.recorder == nil {
		return ErrNoRecorder
	}
	return e.recorder.Start(ctx)
}

func (e *BeepEngine) StopRecording(ctx context.Context) (ports.Clip, error) {
	if e.recorder == nil {
		return ports.Clip{}, ErrNoRecorder
	}
	return e.recorder.Stop(ctx)
}

// Close releases the loaded resource.
func (e *BeepEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	return nil
}

var _ ports.AudioEngine = (*BeepEngine)(nil)
