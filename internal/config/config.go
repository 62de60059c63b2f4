// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration from defaults, a YAML file and
// MEDIADECK_* environment variables, in increasing order of precedence.
package config

import "time"

// AppConfig is the resolved daemon configuration.
type AppConfig struct {
	Version    string
	DataDir    string
	LogLevel   string
	LogService string

	Library   LibraryConfig
	Audio     AudioConfig
	Resume    ResumeConfig
	API       APIConfig
	Telemetry TelemetryConfig

	// ExclusiveRecording stops playback before a recording starts.
	ExclusiveRecording bool
}

// LibraryConfig locates the media libraries.
type LibraryConfig struct {
	AudioRoot       string
	PhotoRoot       string
	VideoRoot       string
	AudioExtensions []string
	ListLimit       int
	MaxDepth        int
	Watch           bool
	WatchDebounce   time.Duration
}

// AudioConfig configures playback and capture.
type AudioConfig struct {
	Output         string // speaker or null
	SampleRate     int
	Channels       int
	StatusInterval time.Duration
	Volume         float64
	CaptureSource  string
	RecordingsDir  string
}

// ResumeConfig selects where stop positions are remembered.
type ResumeConfig struct {
	Backend string // memory or sqlite
}

// APIConfig configures the HTTP control surface.
type APIConfig struct {
	ListenAddr         string
	RateLimitPerMinute int
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string // grpc or http
	Endpoint     string
	SamplingRate float64
}

// FileConfig mirrors the YAML file. Pointer fields distinguish unset from zero.
type FileConfig struct {
	DataDir            string              `yaml:"dataDir,omitempty"`
	LogLevel           string              `yaml:"logLevel,omitempty"`
	LogService         string              `yaml:"logService,omitempty"`
	ExclusiveRecording *bool               `yaml:"exclusiveRecording,omitempty"`
	Library            LibraryFileConfig   `yaml:"library,omitempty"`
	Audio              AudioFileConfig     `yaml:"audio,omitempty"`
	Resume             ResumeFileConfig    `yaml:"resume,omitempty"`
	API                APIFileConfig       `yaml:"api,omitempty"`
	Telemetry          TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type LibraryFileConfig struct {
	AudioRoot       string   `yaml:"audioRoot,omitempty"`
	PhotoRoot       string   `yaml:"photoRoot,omitempty"`
	VideoRoot       string   `yaml:"videoRoot,omitempty"`
	AudioExtensions []string `yaml:"audioExtensions,omitempty"`
	ListLimit       *int     `yaml:"listLimit,omitempty"`
	MaxDepth        *int     `yaml:"maxDepth,omitempty"`
	Watch           *bool    `yaml:"watch,omitempty"`
	WatchDebounce   string   `yaml:"watchDebounce,omitempty"`
}

type AudioFileConfig struct {
	Output         string   `yaml:"output,omitempty"`
	SampleRate     *int     `yaml:"sampleRate,omitempty"`
	Channels       *int     `yaml:"channels,omitempty"`
	StatusInterval string   `yaml:"statusInterval,omitempty"`
	Volume         *float64 `yaml:"volume,omitempty"`
	CaptureSource  string   `yaml:"captureSource,omitempty"`
	RecordingsDir  string   `yaml:"recordingsDir,omitempty"`
}

type ResumeFileConfig struct {
	Backend string `yaml:"backend,omitempty"`
}

type APIFileConfig struct {
	ListenAddr         string `yaml:"listenAddr,omitempty"`
	RateLimitPerMinute *int   `yaml:"rateLimitPerMinute,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
