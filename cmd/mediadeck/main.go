// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command mediadeck plays and records audio clips from a local library,
// controlled over HTTP or an interactive shell.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/mediadeck/internal/config"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/version"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "mediadeck",
		Short:         "Audio playback and recording deck",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (YAML)")

	root.AddCommand(
		newServeCmd(opts),
		newShellCmd(opts),
		newListCmd(opts),
		newHealthcheckCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves and validates the configuration and points the logger at logOut.
func loadConfig(opts *rootOptions, logOut io.Writer) (config.AppConfig, error) {
	mdlog.Configure(mdlog.Config{Level: "info", Output: logOut, Service: "mediadeck", Version: version.Version})
	logger := mdlog.WithComponent("cli")

	cfg, err := config.NewLoader(opts.configPath, version.Version).Load()
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}

	mdlog.Configure(mdlog.Config{
		Level:   cfg.LogLevel,
		Output:  logOut,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if err := config.Validate(cfg); err != nil {
		return config.AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}

	source := "env+defaults"
	if opts.configPath != "" {
		source = "file"
	}
	logger.Debug().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", opts.configPath).
		Msg("configuration loaded")
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
