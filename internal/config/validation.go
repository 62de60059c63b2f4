// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/mediadeck/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
// Missing data and recordings directories are created.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Directory("DataDir", cfg.DataDir, false)
	v.Directory("Audio.RecordingsDir", cfg.Audio.RecordingsDir, false)

	if !validate.LogLevel(cfg.LogLevel).IsValid() {
		v.AddError("LogLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
	}

	if cfg.Library.AudioRoot != "" {
		v.Directory("Library.AudioRoot", cfg.Library.AudioRoot, true)
	}
	v.Extensions("Library.AudioExtensions", cfg.Library.AudioExtensions)
	v.Range("Library.ListLimit", cfg.Library.ListLimit, 1, 1000)
	v.Range("Library.MaxDepth", cfg.Library.MaxDepth, 0, 64)
	if cfg.Library.Watch && cfg.Library.WatchDebounce < 10*time.Millisecond {
		v.AddError("Library.WatchDebounce", "must be at least 10ms", cfg.Library.WatchDebounce)
	}

	v.OneOf("Audio.Output", cfg.Audio.Output, []string{"speaker", "null"})
	v.Range("Audio.SampleRate", cfg.Audio.SampleRate, 8000, 192000)
	v.Range("Audio.Channels", cfg.Audio.Channels, 1, 2)
	if cfg.Audio.StatusInterval < 50*time.Millisecond || cfg.Audio.StatusInterval > 10*time.Second {
		v.AddError("Audio.StatusInterval", "must be between 50ms and 10s", cfg.Audio.StatusInterval)
	}
	if cfg.Audio.Volume < -10 || cfg.Audio.Volume > 4 {
		v.AddError("Audio.Volume", "must be between -10 and 4", cfg.Audio.Volume)
	}

	v.OneOf("Resume.Backend", cfg.Resume.Backend, []string{"memory", "sqlite"})

	v.ListenAddr("API.ListenAddr", cfg.API.ListenAddr)
	v.Positive("API.RateLimitPerMinute", cfg.API.RateLimitPerMinute)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		if cfg.Telemetry.Endpoint == "" {
			v.AddError("Telemetry.Endpoint", "endpoint is required when telemetry is enabled", cfg.Telemetry.Endpoint)
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("Telemetry.SamplingRate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	return v.Err()
}
