// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/domain/session/lifecycle"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	"github.com/ManuGH/mediadeck/internal/metrics"
	fake "github.com/ManuGH/mediadeck/internal/testutil"
)

type statusRecorder struct {
	mu       sync.Mutex
	statuses []model.PlaybackStatus
}

func (r *statusRecorder) observe(s model.PlaybackSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.statuses); n > 0 && r.statuses[n-1] == s.Status {
		return
	}
	r.statuses = append(r.statuses, s.Status)
}

func (r *statusRecorder) seen() []model.PlaybackStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.PlaybackStatus(nil), r.statuses...)
}

func newTestSession(t *testing.T) (*Session, *fake.FakeEngine, *statusRecorder) {
	t.Helper()
	eng := fake.NewFakeEngine()
	rec := &statusRecorder{}
	s := NewSession(eng, WithObserver(rec.observe))
	t.Cleanup(s.Close)
	return s, eng, rec
}

func playing(s *Session, eng *fake.FakeEngine, pos int64) {
	eng.Emit(ports.StatusEvent{Generation: s.Snapshot().Generation, PositionMillis: pos, IsPlaying: true, IsLoaded: true})
}

func TestSession_LoadConfirmPlay(t *testing.T) {
	s, eng, rec := newTestSession(t)
	ctx := context.Background()
	track := model.Track{ID: "a", URI: "file:///a.wav", Filename: "a.wav"}

	require.NoError(t, s.Load(ctx, track, 0))
	assert.Equal(t, model.PlaybackLoading, s.Status())

	playing(s, eng, 10)
	assert.Equal(t, model.PlaybackPlaying, s.Status())
	assert.Equal(t, []model.PlaybackStatus{model.PlaybackLoading, model.PlaybackPlaying}, rec.seen())

	pos, ok := s.Position()
	assert.True(t, ok)
	assert.Equal(t, int64(10), pos)

	loads := eng.CallsOf("load")
	require.Len(t, loads, 1)
	assert.Equal(t, "file:///a.wav", loads[0].URI)
	assert.Equal(t, int64(0), loads[0].Offset)
}

func TestSession_LoadFailureIsRecoverable(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()
	boom := errors.New("decoder exploded")
	eng.LoadErr = func(req ports.LoadRequest) error {
		if req.URI == "file:///bad.wav" {
			return boom
		}
		return nil
	}

	err := s.Load(ctx, model.Track{ID: "bad", URI: "file:///bad.wav"}, 0)
	require.ErrorIs(t, err, model.ErrEngineLoad)
	require.ErrorIs(t, err, boom)
	snap := s.Snapshot()
	assert.Equal(t, model.PlaybackError, snap.Status)
	assert.Contains(t, snap.LastError, "decoder exploded")

	firstGen := snap.Generation
	require.NoError(t, s.Load(ctx, model.Track{ID: "good", URI: "file:///good.wav"}, 0))
	snap = s.Snapshot()
	assert.Equal(t, model.PlaybackLoading, snap.Status)
	assert.Greater(t, snap.Generation, firstGen)
	assert.Empty(t, snap.LastError)
}

func TestSession_StaleEventsNeverApply(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.StaleStatusEventsTotal)

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
	oldGen := s.Snapshot().Generation
	require.NoError(t, s.Load(ctx, model.Track{ID: "b", URI: "b"}, 0))

	eng.Emit(ports.StatusEvent{Generation: oldGen, PositionMillis: 9999, IsPlaying: true, IsLoaded: true})

	snap := s.Snapshot()
	assert.Equal(t, model.PlaybackLoading, snap.Status)
	assert.Equal(t, int64(0), snap.PositionMillis)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StaleStatusEventsTotal))
}

func TestSession_NaturalEndStopsPlayback(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
	playing(s, eng, 100)
	eng.Emit(ports.StatusEvent{Generation: s.Snapshot().Generation, PositionMillis: 3000, IsPlaying: false, IsLoaded: true})

	snap := s.Snapshot()
	assert.Equal(t, model.PlaybackStopped, snap.Status)
	assert.Equal(t, int64(3000), snap.PositionMillis)

	// The ended resource is still loaded and gets released by the next load.
	require.NoError(t, s.Load(ctx, model.Track{ID: "b", URI: "b"}, 0))
	assert.Zero(t, eng.Overlaps())
}

func TestSession_PauseResume(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
	playing(s, eng, 50)

	require.NoError(t, s.Pause(ctx))
	assert.Equal(t, model.PlaybackPaused, s.Status())

	// A paused but loaded tick is not an end of track.
	eng.Emit(ports.StatusEvent{Generation: s.Snapshot().Generation, PositionMillis: 60, IsLoaded: true})
	assert.Equal(t, model.PlaybackPaused, s.Status())

	require.NoError(t, s.Resume(ctx))
	assert.Equal(t, model.PlaybackPlaying, s.Status())
	assert.Len(t, eng.CallsOf("resume"), 1)
	assert.Len(t, eng.CallsOf("load"), 1)
}

func TestSession_ResumeFallsBackToReload(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()
	eng.ResumeUnsupported = true

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
	playing(s, eng, 1234)
	require.NoError(t, s.Pause(ctx))

	require.NoError(t, s.Resume(ctx))
	assert.Equal(t, model.PlaybackLoading, s.Status())

	loads := eng.CallsOf("load")
	require.Len(t, loads, 2)
	assert.Equal(t, int64(1234), loads[1].Offset)
	assert.Zero(t, eng.Overlaps())
}

func TestSession_PauseRejectedWhenNotPlaying(t *testing.T) {
	s, eng, _ := newTestSession(t)

	err := s.Pause(context.Background())
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	assert.Empty(t, eng.Calls())
}

func TestSession_StopRetainsPositionAndReleases(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
	playing(s, eng, 4321)
	gen := s.Snapshot().Generation

	require.NoError(t, s.Stop(ctx))
	snap := s.Snapshot()
	assert.Equal(t, model.PlaybackStopped, snap.Status)
	assert.Equal(t, int64(4321), snap.PositionMillis)
	loaded, _ := eng.Loaded()
	assert.False(t, loaded)

	// A late tick from the torn-down resource must not move the position.
	eng.Emit(ports.StatusEvent{Generation: gen, PositionMillis: 5000, IsPlaying: true, IsLoaded: true})
	pos, _ := s.Position()
	assert.Equal(t, int64(4321), pos)

	// Stopping again is a no-op.
	eng.ResetCalls()
	require.NoError(t, s.Stop(ctx))
	assert.Empty(t, eng.Calls())
}

func TestSession_StopFailureMovesToError(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
	eng.StopErr = errors.New("device busy")

	err := s.Stop(ctx)
	require.ErrorIs(t, err, model.ErrEnginePlayback)
	assert.Equal(t, model.PlaybackError, s.Status())

	// The next command recovers the session.
	eng.StopErr = nil
	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, model.PlaybackIdle, s.Status())
}

func TestSession_PlayFailureMovesToError(t *testing.T) {
	s, eng, _ := newTestSession(t)
	eng.PlayErr = errors.New("no output device")

	err := s.Load(context.Background(), model.Track{ID: "a", URI: "a"}, 0)
	require.ErrorIs(t, err, model.ErrEnginePlayback)
	assert.Equal(t, model.PlaybackError, s.Status())
}

func TestSession_ResetClearsTrackAndPosition(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 200))
	require.NoError(t, s.Reset(ctx))

	snap := s.Snapshot()
	assert.Equal(t, model.PlaybackIdle, snap.Status)
	assert.Nil(t, snap.Track)
	assert.False(t, snap.HasPosition)
	loaded, _ := eng.Loaded()
	assert.False(t, loaded)
}

func TestSession_GenerationMonotonic(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	seen := map[model.Generation]struct{}{}
	var last model.Generation
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Load(ctx, model.Track{ID: "a", URI: "a"}, 0))
		g := s.Snapshot().Generation
		assert.Greater(t, g, last)
		seen[g] = struct{}{}
		last = g
	}
	assert.Len(t, seen, 5)
}

func TestSession_CloseUnsubscribes(t *testing.T) {
	eng := fake.NewFakeEngine()
	s := NewSession(eng)
	assert.Equal(t, 1, eng.Subscribers())
	s.Close()
	assert.Equal(t, 0, eng.Subscribers())
}

func TestNewSession_NilEnginePanics(t *testing.T) {
	assert.Panics(t, func() { NewSession(nil) })
}

func TestSession_ReportedPositionAndLoaded(t *testing.T) {
	s, eng, _ := newTestSession(t)
	ctx := context.Background()
	track := model.Track{ID: "a", URI: "file:///a.wav"}

	require.NoError(t, s.Load(ctx, track, 700))
	assert.True(t, s.Loaded())
	_, ok := s.ReportedPosition("a")
	assert.False(t, ok, "the load offset is not a reported position")

	playing(s, eng, 900)
	pos, ok := s.ReportedPosition("a")
	require.True(t, ok)
	assert.Equal(t, int64(900), pos)
	_, ok = s.ReportedPosition("b")
	assert.False(t, ok)

	// Natural end keeps the resource until it is released.
	eng.Emit(ports.StatusEvent{Generation: s.Snapshot().Generation, PositionMillis: 1000, IsLoaded: true})
	require.Equal(t, model.PlaybackStopped, s.Status())
	assert.True(t, s.Loaded())

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.Loaded())
	pos, ok = s.ReportedPosition("a")
	require.True(t, ok)
	assert.Equal(t, int64(1000), pos)

	require.NoError(t, s.Reset(ctx))
	_, ok = s.ReportedPosition("a")
	assert.False(t, ok)
}
