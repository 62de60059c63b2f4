// Package testutil provides in-memory collaborators for session tests.
package testutil

import (
	"context"
	"sync"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
)

// EngineCall records one call made against FakeEngine.
type EngineCall struct {
	Op         string
	Generation model.Generation
	URI        string
	Offset     int64
}

// FakeEngine is a scriptable ports.AudioEngine. It never emits status events on
// its own; tests drive them with Emit.
type FakeEngine struct {
	mu        sync.Mutex
	calls     []EngineCall
	subs      map[int]ports.StatusFunc
	nextSub   int
	loaded    bool
	loadedGen model.Generation
	overlaps  int
	recording bool

	LoadErr           func(req ports.LoadRequest) error
	PlayErr           error
	PauseErr          error
	StopErr           error
	ResumeUnsupported bool
	StartRecordErr    error
	StopRecordErr     error
	NextClip          ports.Clip
}

// NewFakeEngine returns an engine with no resource loaded.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{subs: make(map[int]ports.StatusFunc)}
}

func (e *FakeEngine) record(c EngineCall) {
	e.calls = append(e.calls, c)
}

func (e *FakeEngine) Load(ctx context.Context, req ports.LoadRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "load", Generation: req.Generation, URI: req.URI, Offset: req.StartOffsetMillis})
	if e.loaded {
		e.overlaps++
	}
	if e.LoadErr != nil {
		if err := e.LoadErr(req); err != nil {
			e.loaded = false
			return err
		}
	}
	e.loaded = true
	e.loadedGen = req.Generation
	return nil
}

func (e *FakeEngine) Play(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "play", Generation: e.loadedGen})
	return e.PlayErr
}

func (e *FakeEngine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "pause", Generation: e.loadedGen})
	return e.PauseErr
}

func (e *FakeEngine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "resume", Generation: e.loadedGen})
	if e.ResumeUnsupported {
		return model.ErrResumeUnsupported
	}
	return nil
}

func (e *FakeEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "stop", Generation: e.loadedGen})
	if e.StopErr != nil {
		return e.StopErr
	}
	e.loaded = false
	return nil
}

func (e *FakeEngine) SubscribeStatus(fn ports.StatusFunc) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *FakeEngine) StartRecording(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "start_recording"})
	if e.StartRecordErr != nil {
		return e.StartRecordErr
	}
	e.recording = true
	return nil
}

func (e *FakeEngine) StopRecording(ctx context.Context) (ports.Clip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(EngineCall{Op: "stop_recording"})
	e.recording = false
	if e.StopRecordErr != nil {
		return ports.Clip{}, e.StopRecordErr
	}
	return e.NextClip, nil
}

// Emit delivers ev to every subscriber on the calling goroutine.
func (e *FakeEngine) Emit(ev ports.StatusEvent) {
	e.mu.Lock()
	subs := make([]ports.StatusFunc, 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Calls returns a copy of every recorded call.
func (e *FakeEngine) Calls() []EngineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EngineCall(nil), e.calls...)
}

// CallsOf returns the recorded calls with the given op.
func (e *FakeEngine) CallsOf(op string) []EngineCall {
	var out []EngineCall
	for _, c := range e.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (e *FakeEngine) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

// Overlaps counts loads issued while another resource was still loaded.
func (e *FakeEngine) Overlaps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlaps
}

// Loaded reports whether a playback resource is alive and its generation.
func (e *FakeEngine) Loaded() (bool, model.Generation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded, e.loadedGen
}

// Recording reports whether a recording resource is alive.
func (e *FakeEngine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// Subscribers returns the number of live status subscriptions.
func (e *FakeEngine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

var _ ports.AudioEngine = (*FakeEngine)(nil)
