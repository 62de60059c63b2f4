// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/rs/zerolog"
)

// Library re-lists the audio tracks.
type Library interface {
	RefreshTracks(ctx context.Context) ([]model.Track, error)
}

// App owns the long-lived runtime lifecycle (initial listing, reload signal)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	library      Library
	reloadSignal os.Signal

	// signals overrides signal.Notify for the reload trigger.
	signals <-chan os.Signal
}

// NewApp creates a new App orchestrator. library may be nil.
func NewApp(logger zerolog.Logger, manager Manager, library Library) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		library:      library,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run lists the library once, then serves until ctx is cancelled or a fatal
// error occurs. SIGHUP re-lists the library.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.library != nil {
		a.refresh(ctx, "startup")

		hupChan := a.signals
		if hupChan == nil && a.reloadSignal != nil {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, a.reloadSignal)
			defer signal.Stop(ch)
			hupChan = ch
		}
		if hupChan != nil {
			g.Go(func() error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case sig := <-hupChan:
						a.logger.Info().
							Str("event", "library.reload_signal").
							Str("signal", sig.String()).
							Msg("received reload signal, refreshing library")
						a.refresh(ctx, "signal")
					}
				}
			})
		}
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

func (a *App) refresh(ctx context.Context, trigger string) {
	tracks, err := a.library.RefreshTracks(ctx)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("event", "library.refresh_failed").
			Str("trigger", trigger).
			Msg("library refresh failed")
		return
	}
	a.logger.Info().
		Str("event", "library.refreshed").
		Str("trigger", trigger).
		Int("tracks", len(tracks)).
		Msg("library refreshed")
}
