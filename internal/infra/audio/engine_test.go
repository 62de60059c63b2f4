package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	platformfs "github.com/ManuGH/mediadeck/internal/platform/fs"
)

const testRate = 8000

// writeTone writes a mono 16-bit WAV of the given length.
func writeTone(t *testing.T, path string, millis int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := gowav.NewEncoder(f, testRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: testRate},
		SourceBitDepth: 16,
		Data:           make([]int, testRate*millis/1000),
	}
	for i := range buf.Data {
		buf.Data[i] = (i % 100) * 100
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

type eventLog struct {
	mu  sync.Mutex
	evs []ports.StatusEvent
}

func (l *eventLog) add(ev ports.StatusEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evs = append(l.evs, ev)
}

func (l *eventLog) last(t *testing.T) ports.StatusEvent {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.evs)
	return l.evs[len(l.evs)-1]
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.evs)
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*BeepEngine, *PullOutput, *eventLog) {
	t.Helper()
	out := &PullOutput{}
	e := NewBeepEngine(out, EngineConfig{SampleRate: testRate, StatusInterval: 100 * time.Millisecond}, opts...)
	log := &eventLog{}
	cancel := e.SubscribeStatus(log.add)
	t.Cleanup(func() {
		cancel()
		_ = e.Close()
	})
	return e, out, log
}

func TestBeepEngine_LoadSeekPlayPause(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 2000)
	e, out, log := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Load(ctx, ports.LoadRequest{Generation: 7, URI: "file://" + path, StartOffsetMillis: 500}))
	e.Poll()
	ev := log.last(t)
	assert.Equal(t, model.Generation(7), ev.Generation)
	assert.Equal(t, int64(500), ev.PositionMillis)
	assert.True(t, ev.IsLoaded)
	assert.False(t, ev.IsPlaying, "loaded resources start paused")

	require.NoError(t, e.Play(ctx))
	out.Pull(testRate / 4)
	e.Poll()
	ev = log.last(t)
	assert.True(t, ev.IsPlaying)
	assert.Equal(t, int64(750), ev.PositionMillis)

	require.NoError(t, e.Pause(ctx))
	out.Pull(testRate)
	e.Poll()
	ev = log.last(t)
	assert.False(t, ev.IsPlaying)
	assert.Equal(t, int64(750), ev.PositionMillis)

	require.NoError(t, e.Resume(ctx))
	out.Pull(testRate * 10)
	e.Poll()
	ev = log.last(t)
	assert.True(t, ev.IsLoaded)
	assert.False(t, ev.IsPlaying, "a drained resource reports loaded but idle")
	assert.Equal(t, int64(2000), ev.PositionMillis)
	assert.Zero(t, out.Active())
}

func TestBeepEngine_SingleResource(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.wav")
	writeTone(t, a, 500)
	writeTone(t, b, 500)
	e, out, log := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Load(ctx, ports.LoadRequest{Generation: 1, URI: a}))
	require.NoError(t, e.Load(ctx, ports.LoadRequest{Generation: 2, URI: b}))
	assert.Equal(t, 1, out.Active())

	e.Poll()
	assert.Equal(t, model.Generation(2), log.last(t).Generation)

	require.NoError(t, e.Stop(ctx))
	assert.Zero(t, out.Active())
	before := log.len()
	e.Poll()
	assert.Equal(t, before, log.len(), "no status without a loaded resource")
	require.NoError(t, e.Stop(ctx))
}

func TestBeepEngine_OffsetPastEndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	writeTone(t, path, 300)
	e, _, log := newTestEngine(t)

	require.NoError(t, e.Load(context.Background(), ports.LoadRequest{Generation: 1, URI: path, StartOffsetMillis: 60_000}))
	e.Poll()
	assert.Equal(t, int64(300), log.last(t).PositionMillis)
}

func TestBeepEngine_LoadErrors(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.Load(ctx, ports.LoadRequest{Generation: 1, URI: "https://example.com/a.wav"})
	assert.ErrorIs(t, err, ErrUnsupportedURI)

	err = e.Load(ctx, ports.LoadRequest{Generation: 2, URI: filepath.Join(t.TempDir(), "missing.wav")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav file at all"), 0o600))
	require.Error(t, e.Load(ctx, ports.LoadRequest{Generation: 3, URI: garbage}))

	assert.ErrorIs(t, e.Play(ctx), model.ErrNothingLoaded)
}

func TestBeepEngine_AllowedRoots(t *testing.T) {
	library := t.TempDir()
	outside := t.TempDir()
	inside := filepath.Join(library, "in.wav")
	writeTone(t, inside, 500)
	stray := filepath.Join(outside, "out.wav")
	writeTone(t, stray, 500)

	e := NewBeepEngine(&PullOutput{}, EngineConfig{SampleRate: testRate, AllowedRoots: []string{library}})
	t.Cleanup(func() { _ = e.Close() })
	ctx := context.Background()

	require.NoError(t, e.Load(ctx, ports.LoadRequest{Generation: 1, URI: "file://" + inside}))

	err := e.Load(ctx, ports.LoadRequest{Generation: 2, URI: "file://" + stray})
	require.ErrorIs(t, err, platformfs.ErrOutsideRoots)

	err = e.Load(ctx, ports.LoadRequest{Generation: 3, URI: library})
	require.ErrorIs(t, err, platformfs.ErrNotRegular)
}

func TestBeepEngine_RunPollsOnClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 1000)
	clock := &manualClock{}
	e, _, log := newTestEngine(t, WithEngineClock(clock))
	require.NoError(t, e.Load(context.Background(), ports.LoadRequest{Generation: 3, URI: path}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()

	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	clock.Tick(100 * time.Millisecond)
	require.Eventually(t, func() bool { return log.len() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, model.Generation(3), log.last(t).Generation)

	cancel()
	<-done
}

func TestBeepEngine_RecordingRequiresRecorder(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.ErrorIs(t, e.StartRecording(context.Background()), ErrNoRecorder)
	_, err := e.StopRecording(context.Background())
	assert.ErrorIs(t, err, ErrNoRecorder)
}

func TestPathFromURI(t *testing.T) {
	tests := []struct {
		uri, want string
		wantErr   bool
	}{
		{uri: "file:///music/a.wav", want: "/music/a.wav"},
		{uri: "/music/b.wav", want: "/music/b.wav"},
		{uri: "file:///music/with%20space.wav", want: "/music/with space.wav"},
		{uri: "http://host/a.wav", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := PathFromURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPullOutput_DriveAdvancesPlayback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 1000)
	clock := &manualClock{}
	e, out, log := newTestEngine(t)
	require.NoError(t, e.Load(context.Background(), ports.LoadRequest{Generation: 1, URI: path}))
	require.NoError(t, e.Play(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		out.Drive(ctx, clock, testRate, 250*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	clock.Tick(250 * time.Millisecond)
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	e.Poll()
	assert.Equal(t, int64(250), log.last(t).PositionMillis)
}
