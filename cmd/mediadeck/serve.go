// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/mediadeck/internal/daemon"
	"github.com/ManuGH/mediadeck/internal/health"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deck with its HTTP control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, os.Stdout)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.API.ListenAddr = listen
			}
			logger := mdlog.WithComponent("daemon")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := health.PerformStartupChecks(ctx, cfg); err != nil {
				logger.Error().Err(err).Str("event", "startup.check_failed").Msg("startup checks failed")
				return err
			}

			rt, err := daemon.Build(ctx, cfg)
			if err != nil {
				return fmt.Errorf("build runtime: %w", err)
			}
			app, _, err := rt.NewApp(daemon.DefaultServerConfig(cfg.API.ListenAddr))
			if err != nil {
				_ = rt.Close(context.WithoutCancel(ctx))
				return err
			}

			logger.Info().
				Str("version", version.Version).
				Str("listen", cfg.API.ListenAddr).
				Msg("mediadeck starting")
			if err := app.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("mediadeck stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override the API listen address")
	return cmd
}
