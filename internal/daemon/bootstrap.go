// SPDX-License-Identifier: MIT

// Package daemon wires the deck, its adapters and the API server into a
// runnable process and manages its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/api"
	"github.com/ManuGH/mediadeck/internal/bus"
	"github.com/ManuGH/mediadeck/internal/config"
	sessionmgr "github.com/ManuGH/mediadeck/internal/domain/session/manager"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/health"
	"github.com/ManuGH/mediadeck/internal/infra/audio"
	"github.com/ManuGH/mediadeck/internal/infra/media"
	"github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/resume"
	"github.com/ManuGH/mediadeck/internal/telemetry"
)

const (
	OutputSpeaker = "speaker"
	OutputNull    = "null"

	speakerBuffer = 100 * time.Millisecond
	nullTick      = 20 * time.Millisecond

	workerEngine  = "engine"
	workerOutput  = "output"
	workerWatcher = "library-watcher"
)

// Runtime is a fully wired deck with its adapters. Close releases everything
// Build acquired, in reverse order.
type Runtime struct {
	Config  config.AppConfig
	Deck    *sessionmgr.Deck
	Bus     *bus.MemoryBus
	Health  *health.Manager
	Handler http.Handler

	logger    zerolog.Logger
	hooks     []namedHook
	closeOnce sync.Once
	closeErr  error
}

// Build constructs the runtime described by cfg. cfg must already be validated.
func Build(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	rt := &Runtime{
		Config: cfg,
		logger: log.WithComponent("daemon"),
	}
	fail := func(err error) (*Runtime, error) {
		return nil, errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}
	rt.addHook("telemetry", tp.Shutdown)

	out, drive, err := newOutput(cfg.Audio)
	if err != nil {
		return fail(err)
	}

	var engineOpts []audio.EngineOption
	if src := cfg.Audio.CaptureSource; src != "" {
		rec := audio.NewWavRecorder(audio.RecorderConfig{
			Dir:        cfg.Audio.RecordingsDir,
			SampleRate: cfg.Audio.SampleRate,
			Channels:   cfg.Audio.Channels,
		}, audio.FileSource(src))
		engineOpts = append(engineOpts, audio.WithRecorder(rec))
	} else {
		rt.logger.Info().Msg("no capture source configured, recording disabled")
	}
	engine := audio.NewBeepEngine(out, audio.EngineConfig{
		SampleRate:     cfg.Audio.SampleRate,
		StatusInterval: cfg.Audio.StatusInterval,
		Volume:         cfg.Audio.Volume,
		AllowedRoots:   []string{cfg.Library.AudioRoot, cfg.Audio.RecordingsDir},
	}, engineOpts...)
	rt.addHook("engine", func(context.Context) error { return engine.Close() })

	provider := media.NewFSProvider(ProviderConfig(cfg))

	store, err := resume.NewStore(cfg.Resume.Backend, cfg.DataDir)
	if err != nil {
		return fail(fmt.Errorf("resume store: %w", err))
	}

	rt.Bus = bus.NewMemoryBus()
	rt.addHook("bus", func(context.Context) error {
		rt.Bus.Close()
		return nil
	})

	// The deck owns the store from here on and closes it on Close.
	rt.Deck = sessionmgr.NewDeck(engine, provider, sessionmgr.Config{
		ListLimit:          cfg.Library.ListLimit,
		ExclusiveRecording: cfg.ExclusiveRecording,
	},
		sessionmgr.WithResumeStore(store),
		sessionmgr.WithPublisher(rt.Bus),
		sessionmgr.WithContext(context.WithoutCancel(ctx)),
	)
	rt.addHook("deck", rt.Deck.Close)

	if err := rt.Deck.Go(workerEngine, func(ctx context.Context) error {
		engine.Run(ctx)
		return nil
	}); err != nil {
		return fail(err)
	}
	if drive != nil {
		if err := rt.Deck.Go(workerOutput, func(ctx context.Context) error {
			drive(ctx)
			return nil
		}); err != nil {
			return fail(err)
		}
	}

	if cfg.Library.Watch && cfg.Library.AudioRoot != "" {
		w, err := media.NewWatcher(cfg.Library.AudioRoot, cfg.Library.WatchDebounce, func(ctx context.Context) {
			if _, err := rt.Deck.RefreshTracks(ctx); err != nil {
				rt.logger.Warn().Err(err).Str("event", "library.refresh_failed").Msg("refresh after library change failed")
			}
		})
		if err != nil {
			return fail(fmt.Errorf("library watcher: %w", err))
		}
		if err := rt.Deck.Go(workerWatcher, func(ctx context.Context) error {
			w.Run(ctx)
			return nil
		}); err != nil {
			w.Close()
			return fail(err)
		}
	}

	rt.Health = newHealthManager(cfg, rt.Deck)
	rt.Handler = api.New(rt.Deck, rt.Health, api.Config{
		Service:            cfg.LogService,
		RateLimitPerMinute: cfg.API.RateLimitPerMinute,
	}).Handler()

	rt.logger.Info().
		Str("output", cfg.Audio.Output).
		Str("resume_backend", cfg.Resume.Backend).
		Str("audio_root", cfg.Library.AudioRoot).
		Bool("exclusive_recording", cfg.ExclusiveRecording).
		Msg("runtime ready")
	return rt, nil
}

func newOutput(cfg config.AudioConfig) (audio.Output, func(context.Context), error) {
	switch cfg.Output {
	case OutputNull:
		out := &audio.PullOutput{}
		drive := func(ctx context.Context) {
			out.Drive(ctx, audio.RealClock{}, cfg.SampleRate, nullTick)
		}
		return out, drive, nil
	case OutputSpeaker, "":
		out, err := audio.NewSpeakerOutput(beep.SampleRate(cfg.SampleRate), speakerBuffer)
		if err != nil {
			return nil, nil, err
		}
		return out, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported audio output: %s (supported: speaker, null)", cfg.Output)
	}
}

// ProviderConfig maps the library settings onto the filesystem provider.
func ProviderConfig(cfg config.AppConfig) media.Config {
	ext := map[model.AssetKind][]string{
		model.AssetAudio: cfg.Library.AudioExtensions,
		model.AssetPhoto: media.DefaultExtensions[model.AssetPhoto],
		model.AssetVideo: media.DefaultExtensions[model.AssetVideo],
	}
	if len(ext[model.AssetAudio]) == 0 {
		ext[model.AssetAudio] = media.DefaultExtensions[model.AssetAudio]
	}
	return media.Config{
		Roots: map[model.AssetKind]string{
			model.AssetAudio: cfg.Library.AudioRoot,
			model.AssetPhoto: cfg.Library.PhotoRoot,
			model.AssetVideo: cfg.Library.VideoRoot,
		},
		Extensions: ext,
		MaxDepth:   cfg.Library.MaxDepth,
		Microphone: media.CaptureAvailable(cfg.Audio.CaptureSource),
	}
}

func newHealthManager(cfg config.AppConfig, deck *sessionmgr.Deck) *health.Manager {
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewWritableDirChecker("data_dir", cfg.DataDir))
	hm.RegisterChecker(health.NewWritableDirChecker("recordings_dir", cfg.Audio.RecordingsDir))
	hm.RegisterChecker(health.Informational(health.NewFuncChecker("engine_worker", func(context.Context) error {
		if deck.Workers()[workerEngine] == 0 {
			return errors.New("engine status worker is not running")
		}
		return nil
	})))
	return hm
}

func (r *Runtime) addHook(name string, hook ShutdownHook) {
	r.hooks = append(r.hooks, namedHook{name: name, hook: hook})
}

// Close releases the runtime in reverse construction order. It is safe to call
// more than once.
func (r *Runtime) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		if errs := runHooks(ctx, r.logger, r.hooks); len(errs) > 0 {
			r.closeErr = errors.Join(errs...)
		}
	})
	return r.closeErr
}

// NewApp creates the manager serving the runtime's handler and an App driving
// it. Shutting the manager down closes the runtime.
func (r *Runtime) NewApp(serverCfg ServerConfig) (*App, Manager, error) {
	logger := log.WithComponent("daemon")
	mgr, err := NewManager(serverCfg, Deps{
		Logger:     logger,
		APIHandler: r.Handler,
	})
	if err != nil {
		return nil, nil, err
	}
	mgr.RegisterShutdownHook("runtime", r.Close)
	return NewApp(logger, mgr, r.Deck), mgr, nil
}
