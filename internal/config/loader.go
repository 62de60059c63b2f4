// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment keys.
const (
	EnvDataDir            = "MEDIADECK_DATA_DIR"
	EnvLogLevel           = "MEDIADECK_LOG_LEVEL"
	EnvLogService         = "MEDIADECK_LOG_SERVICE"
	EnvLibraryAudio       = "MEDIADECK_LIBRARY_AUDIO"
	EnvLibraryPhoto       = "MEDIADECK_LIBRARY_PHOTO"
	EnvLibraryVideo       = "MEDIADECK_LIBRARY_VIDEO"
	EnvAudioExtensions    = "MEDIADECK_AUDIO_EXTENSIONS"
	EnvListLimit          = "MEDIADECK_LIST_LIMIT"
	EnvLibraryMaxDepth    = "MEDIADECK_LIBRARY_MAX_DEPTH"
	EnvLibraryWatch       = "MEDIADECK_LIBRARY_WATCH"
	EnvWatchDebounce      = "MEDIADECK_LIBRARY_WATCH_DEBOUNCE"
	EnvAudioOutput        = "MEDIADECK_AUDIO_OUTPUT"
	EnvSampleRate         = "MEDIADECK_SAMPLE_RATE"
	EnvChannels           = "MEDIADECK_CHANNELS"
	EnvStatusInterval     = "MEDIADECK_STATUS_INTERVAL"
	EnvVolume             = "MEDIADECK_VOLUME"
	EnvCaptureSource      = "MEDIADECK_CAPTURE_SOURCE"
	EnvRecordingsDir      = "MEDIADECK_RECORDINGS_DIR"
	EnvResumeBackend      = "MEDIADECK_RESUME_BACKEND"
	EnvListen             = "MEDIADECK_LISTEN"
	EnvRateLimit          = "MEDIADECK_RATE_LIMIT"
	EnvExclusiveRecording = "MEDIADECK_EXCLUSIVE_RECORDING"
	EnvTelemetryEnabled   = "MEDIADECK_TELEMETRY_ENABLED"
	EnvTelemetryExporter  = "MEDIADECK_TELEMETRY_EXPORTER"
	EnvOTLPEndpoint       = "MEDIADECK_OTLP_ENDPOINT"
	EnvSamplingRate       = "MEDIADECK_SAMPLING_RATE"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The result is not validated; call Validate before use.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Audio.RecordingsDir == "" {
		cfg.Audio.RecordingsDir = filepath.Join(cfg.DataDir, "recordings")
	}
	cfg.Version = l.version
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:    "data",
		LogLevel:   "info",
		LogService: "mediadeck",
		Library: LibraryConfig{
			AudioExtensions: []string{".wav"},
			ListLimit:       20,
			Watch:           true,
			WatchDebounce:   500 * time.Millisecond,
		},
		Audio: AudioConfig{
			Output:         "speaker",
			SampleRate:     44100,
			Channels:       1,
			StatusInterval: 500 * time.Millisecond,
		},
		Resume: ResumeConfig{Backend: "memory"},
		API: APIConfig{
			ListenAddr:         "127.0.0.1:8088",
			RateLimitPerMinute: 120,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		ExclusiveRecording: true,
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogService, f.LogService)
	if f.ExclusiveRecording != nil {
		cfg.ExclusiveRecording = *f.ExclusiveRecording
	}

	setString(&cfg.Library.AudioRoot, f.Library.AudioRoot)
	setString(&cfg.Library.PhotoRoot, f.Library.PhotoRoot)
	setString(&cfg.Library.VideoRoot, f.Library.VideoRoot)
	if len(f.Library.AudioExtensions) > 0 {
		cfg.Library.AudioExtensions = append([]string(nil), f.Library.AudioExtensions...)
	}
	setInt(&cfg.Library.ListLimit, f.Library.ListLimit)
	setInt(&cfg.Library.MaxDepth, f.Library.MaxDepth)
	if f.Library.Watch != nil {
		cfg.Library.Watch = *f.Library.Watch
	}
	if err := setDuration(&cfg.Library.WatchDebounce, "library.watchDebounce", f.Library.WatchDebounce); err != nil {
		return err
	}

	setString(&cfg.Audio.Output, f.Audio.Output)
	setInt(&cfg.Audio.SampleRate, f.Audio.SampleRate)
	setInt(&cfg.Audio.Channels, f.Audio.Channels)
	if err := setDuration(&cfg.Audio.StatusInterval, "audio.statusInterval", f.Audio.StatusInterval); err != nil {
		return err
	}
	if f.Audio.Volume != nil {
		cfg.Audio.Volume = *f.Audio.Volume
	}
	setString(&cfg.Audio.CaptureSource, f.Audio.CaptureSource)
	setString(&cfg.Audio.RecordingsDir, f.Audio.RecordingsDir)

	setString(&cfg.Resume.Backend, f.Resume.Backend)

	setString(&cfg.API.ListenAddr, f.API.ListenAddr)
	setInt(&cfg.API.RateLimitPerMinute, f.API.RateLimitPerMinute)

	if f.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *f.Telemetry.Enabled
	}
	setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	if f.Telemetry.SamplingRate != nil {
		cfg.Telemetry.SamplingRate = *f.Telemetry.SamplingRate
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.ExclusiveRecording = l.envBool(EnvExclusiveRecording, cfg.ExclusiveRecording)

	cfg.Library.AudioRoot = l.envString(EnvLibraryAudio, cfg.Library.AudioRoot)
	cfg.Library.PhotoRoot = l.envString(EnvLibraryPhoto, cfg.Library.PhotoRoot)
	cfg.Library.VideoRoot = l.envString(EnvLibraryVideo, cfg.Library.VideoRoot)
	cfg.Library.AudioExtensions = l.envList(EnvAudioExtensions, cfg.Library.AudioExtensions)
	cfg.Library.ListLimit = l.envInt(EnvListLimit, cfg.Library.ListLimit)
	cfg.Library.MaxDepth = l.envInt(EnvLibraryMaxDepth, cfg.Library.MaxDepth)
	cfg.Library.Watch = l.envBool(EnvLibraryWatch, cfg.Library.Watch)
	cfg.Library.WatchDebounce = l.envDuration(EnvWatchDebounce, cfg.Library.WatchDebounce)

	cfg.Audio.Output = l.envString(EnvAudioOutput, cfg.Audio.Output)
	cfg.Audio.SampleRate = l.envInt(EnvSampleRate, cfg.Audio.SampleRate)
	cfg.Audio.Channels = l.envInt(EnvChannels, cfg.Audio.Channels)
	cfg.Audio.StatusInterval = l.envDuration(EnvStatusInterval, cfg.Audio.StatusInterval)
	cfg.Audio.Volume = l.envFloat(EnvVolume, cfg.Audio.Volume)
	cfg.Audio.CaptureSource = l.envString(EnvCaptureSource, cfg.Audio.CaptureSource)
	cfg.Audio.RecordingsDir = l.envString(EnvRecordingsDir, cfg.Audio.RecordingsDir)

	cfg.Resume.Backend = l.envString(EnvResumeBackend, cfg.Resume.Backend)

	cfg.API.ListenAddr = l.envString(EnvListen, cfg.API.ListenAddr)
	cfg.API.RateLimitPerMinute = l.envInt(EnvRateLimit, cfg.API.RateLimitPerMinute)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvTelemetryExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvOTLPEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvSamplingRate, cfg.Telemetry.SamplingRate)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
