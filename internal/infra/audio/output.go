// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output is the sink that pulls samples from loaded streamers.
// Lock and Unlock guard mutation of streamers the sink is currently reading.
type Output interface {
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// SpeakerOutput plays through the default audio device.
type SpeakerOutput struct{}

var (
	speakerOnce sync.Once
	speakerErr  error
)

// NewSpeakerOutput initializes the device once per process at sampleRate.
func NewSpeakerOutput(sampleRate beep.SampleRate, buffer time.Duration) (*SpeakerOutput, error) {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sampleRate, sampleRate.N(buffer))
	})
	if speakerErr != nil {
		return nil, fmt.Errorf("init speaker: %w", speakerErr)
	}
	return &SpeakerOutput{}, nil
}

func (SpeakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (SpeakerOutput) Clear()               { speaker.Clear() }
func (SpeakerOutput) Lock()                { speaker.Lock() }
func (SpeakerOutput) Unlock()              { speaker.Unlock() }

// PullOutput is an Output that only advances when Pull is called.
// It stands in for the device in headless runs and tests.
type PullOutput struct {
	mu      sync.Mutex
	streams []beep.Streamer
}

func (o *PullOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams = append(o.streams, s)
}

func (o *PullOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams = nil
}

func (o *PullOutput) Lock()   { o.mu.Lock() }
func (o *PullOutput) Unlock() { o.mu.Unlock() }

// Pull streams n sample frames from every playing streamer and drops finished ones.
// Like the device, it holds the output lock while streaming.
func (o *PullOutput) Pull(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	buf := make([][2]float64, 512)
	alive := o.streams[:0]
	for _, s := range o.streams {
		ok := true
		for left := n; left > 0 && ok; {
			chunk := buf
			if left < len(chunk) {
				chunk = chunk[:left]
			}
			var got int
			got, ok = s.Stream(chunk)
			if got == 0 {
				break
			}
			left -= got
		}
		if ok {
			alive = append(alive, s)
		}
	}
	o.streams = alive
}

// Active returns the number of streamers still attached.
func (o *PullOutput) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streams)
}

// Drive pulls tick worth of frames at sampleRate on every tick of clock,
// standing in for a device clock, until ctx is done.
func (o *PullOutput) Drive(ctx context.Context, clock Clock, sampleRate int, tick time.Duration) {
	frames := beep.SampleRate(sampleRate).N(tick)
	for {
		select {
		case <-ctx.Done():
			return
		case <-clock.After(tick):
			o.Pull(frames)
		}
	}
}
