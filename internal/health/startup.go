// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/mediadeck/internal/config"
	"github.com/ManuGH/mediadeck/internal/log"
)

// PerformStartupChecks validates the environment before the deck starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running startup checks")

	if err := checkWritableDir(cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkWritableDir(cfg.Audio.RecordingsDir); err != nil {
		return fmt.Errorf("recordings directory check failed: %w", err)
	}
	if cfg.Library.AudioRoot != "" {
		if _, err := os.ReadDir(cfg.Library.AudioRoot); err != nil {
			return fmt.Errorf("audio library check failed: %w", err)
		}
	}
	if src := cfg.Audio.CaptureSource; src != "" {
		if _, err := os.Stat(src); err != nil {
			// A missing capture device only disables recording.
			logger.Warn().Err(err).Str(log.FieldPath, src).Msg("capture source unavailable")
		}
	}

	logger.Info().Str(log.FieldPath, cfg.DataDir).Msg("startup checks passed")
	return nil
}
