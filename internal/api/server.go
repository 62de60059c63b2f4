// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the deck control surface over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/api/middleware"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/health"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

// Deck is the session surface the API drives.
type Deck interface {
	RefreshTracks(ctx context.Context) ([]model.Track, error)
	Playlist() model.PlaylistSnapshot
	Playback() model.PlaybackSnapshot
	Recordings() model.RecordingSnapshot

	Select(ctx context.Context, index int) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	Exit(ctx context.Context) error

	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (model.Recording, error)
	PlayRecording(ctx context.Context, index int) (model.Recording, error)
}

// Config configures the HTTP surface.
type Config struct {
	Service            string
	RateLimitPerMinute int
}

// Server routes HTTP requests to the deck.
type Server struct {
	deck   Deck
	health *health.Manager
	cfg    Config
	logger zerolog.Logger
}

// New creates a server. A nil health manager reports always healthy.
func New(deck Deck, hm *health.Manager, cfg Config) *Server {
	if deck == nil {
		panic("invariant violation: deck is nil in api.New")
	}
	if hm == nil {
		hm = health.NewManager("")
	}
	if cfg.Service == "" {
		cfg.Service = "mediadeck"
	}
	return &Server{
		deck:   deck,
		health: hm,
		cfg:    cfg,
		logger: mdlog.WithComponent("api"),
	}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.Service,
		EnableLogging:         true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimitPerMinute > 0 {
			r.Use(middleware.PerMinute(s.cfg.RateLimitPerMinute))
		}

		r.Get("/tracks", s.handleListTracks)
		r.Post("/tracks/refresh", s.handleRefreshTracks)

		r.Route("/playback", func(r chi.Router) {
			r.Get("/", s.handleGetPlayback)
			r.Post("/select/{index}", s.handleSelect)
			r.Post("/next", s.command(s.deck.Next))
			r.Post("/previous", s.command(s.deck.Previous))
			r.Post("/pause", s.command(s.deck.Pause))
			r.Post("/resume", s.command(s.deck.Resume))
			r.Post("/stop", s.command(s.deck.Stop))
			r.Post("/exit", s.command(s.deck.Exit))
		})

		r.Route("/recordings", func(r chi.Router) {
			r.Get("/", s.handleListRecordings)
			r.Post("/start", s.handleStartRecording)
			r.Post("/stop", s.handleStopRecording)
			r.Post("/{index}/play", s.handlePlayRecording)
		})
	})
	return r
}
