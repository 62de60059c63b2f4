// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

const (
	bitDepth      = 16
	pcmFormat     = 1
	bytesPerFrame = bitDepth / 8
	readChunk     = 4096
)

var ErrAlreadyRecording = errors.New("capture already running")

// CaptureSource opens a stream of signed 16-bit little-endian PCM frames.
// Closing the returned reader must unblock a pending Read.
type CaptureSource func(ctx context.Context) (io.ReadCloser, error)

// FileSource reads PCM from path, typically a FIFO fed by a capture tool.
func FileSource(path string) CaptureSource {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// RecorderConfig configures a WavRecorder.
type RecorderConfig struct {
	Dir        string
	SampleRate int
	Channels   int
}

type capture struct {
	path     string
	pending  *renameio.PendingFile
	enc      *gowav.Encoder
	src      io.ReadCloser
	stopping atomic.Bool
	done     chan struct{}

	// Written by pump only; read after done is closed.
	frames int64
	err    error
}

// WavRecorder encodes captured PCM into WAV files under Dir. Files appear at
// their final path only once finalized.
type WavRecorder struct {
	cfg     RecorderConfig
	source  CaptureSource
	newName func() string
	logger  zerolog.Logger

	mu     sync.Mutex
	active *capture
}

// NewWavRecorder creates a recorder reading from source.
func NewWavRecorder(cfg RecorderConfig, source CaptureSource) *WavRecorder {
	if source == nil {
		panic("invariant violation: capture source is nil in audio.NewWavRecorder")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &WavRecorder{
		cfg:     cfg,
		source:  source,
		newName: uuid.NewString,
		logger:  mdlog.WithComponent("recorder"),
	}
}

// Start opens the capture source and begins encoding in the background.
func (r *WavRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return ErrAlreadyRecording
	}

	if err := os.MkdirAll(r.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("create recordings dir: %w", err)
	}
	path := filepath.Join(r.cfg.Dir, r.newName()+".wav")

	src, err := r.source(ctx)
	if err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("create pending recording: %w", err)
	}

	c := &capture{
		path:    path,
		pending: pending,
		enc:     gowav.NewEncoder(pending, r.cfg.SampleRate, bitDepth, r.cfg.Channels, pcmFormat),
		src:     src,
		done:    make(chan struct{}),
	}
	r.active = c
	go r.pump(c)

	r.logger.Info().Str(mdlog.FieldPath, path).Int(mdlog.FieldSampleRate, r.cfg.SampleRate).Msg("capture started")
	return nil
}

func (r *WavRecorder) pump(c *capture) {
	defer close(c.done)

	raw := make([]byte, readChunk)
	var carry []byte
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: r.cfg.Channels, SampleRate: r.cfg.SampleRate},
		SourceBitDepth: bitDepth,
	}
	frameBytes := bytesPerFrame * r.cfg.Channels

	for {
		n, readErr := c.src.Read(raw)
		if n > 0 {
			data := append(carry, raw[:n]...)
			whole := len(data) - len(data)%frameBytes
			samples := whole / bytesPerFrame

			buf.Data = buf.Data[:0]
			for i := 0; i < samples; i++ {
				buf.Data = append(buf.Data, int(int16(binary.LittleEndian.Uint16(data[i*2:]))))
			}
			if samples > 0 {
				if err := c.enc.Write(buf); err != nil {
					c.err = fmt.Errorf("encode pcm: %w", err)
					return
				}
				c.frames += int64(whole / frameBytes)
			}
			carry = append(carry[:0], data[whole:]...)
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && !c.stopping.Load() {
				c.err = fmt.Errorf("read capture source: %w", readErr)
			}
			return
		}
	}
}

// Stop ends the capture, finalizes the WAV header and atomically publishes the file.
func (r *WavRecorder) Stop(ctx context.Context) (ports.Clip, error) {
	r.mu.Lock()
	c := r.active
	r.active = nil
	r.mu.Unlock()
	if c == nil {
		return ports.Clip{}, model.ErrNotRecording
	}
	c.stopping.Store(true)
	_ = c.src.Close()
	select {
	case <-c.done:
	case <-ctx.Done():
		// pump still owns the pending file until it returns.
		go func() {
			<-c.done
			r.discard(c)
		}()
		return ports.Clip{}, fmt.Errorf("wait for capture to drain: %w", ctx.Err())
	}
	defer r.discard(c)
	if c.err != nil {
		return ports.Clip{}, c.err
	}

	if err := c.enc.Close(); err != nil {
		return ports.Clip{}, fmt.Errorf("finalize wav: %w", err)
	}
	if err := c.pending.CloseAtomicallyReplace(); err != nil {
		return ports.Clip{}, fmt.Errorf("publish recording: %w", err)
	}

	clip := ports.Clip{
		URI:            (&url.URL{Scheme: "file", Path: c.path}).String(),
		DurationMillis: c.frames * 1000 / int64(r.cfg.SampleRate),
	}
	r.logger.Info().
		Str(mdlog.FieldPath, c.path).
		Int64(mdlog.FieldDurationMs, clip.DurationMillis).
		Msg("capture finalized")
	return clip, nil
}

// discard removes the pending file unless it was already published.
func (r *WavRecorder) discard(c *capture) {
	if err := c.pending.Cleanup(); err != nil {
		r.logger.Debug().Err(err).Str(mdlog.FieldPath, c.path).Msg("cleanup pending recording")
	}
}

// Recording reports whether a capture is running.
func (r *WavRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}
