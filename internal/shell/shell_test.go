// SPDX-License-Identifier: MIT

package shell

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
)

type fakeDeck struct {
	tracks   []model.Track
	index    int
	playback model.PlaybackSnapshot
	recs     []model.Recording
	calls    []string
	startErr error
}

func newFakeDeck() *fakeDeck {
	return &fakeDeck{
		index: model.NoIndex,
		tracks: []model.Track{
			{ID: "1", URI: "file:///a.wav", Filename: "a.wav"},
			{ID: "2", URI: "file:///b.wav", Filename: "b.wav"},
		},
		playback: model.PlaybackSnapshot{Status: model.PlaybackIdle},
	}
}

func (d *fakeDeck) call(name string) { d.calls = append(d.calls, name) }

func (d *fakeDeck) RefreshTracks(context.Context) ([]model.Track, error) {
	d.call("refresh")
	return d.tracks, nil
}

func (d *fakeDeck) Playlist() model.PlaylistSnapshot {
	return model.PlaylistSnapshot{Tracks: d.tracks, CurrentIndex: d.index, Playback: d.playback}
}

func (d *fakeDeck) Playback() model.PlaybackSnapshot { return d.playback }

func (d *fakeDeck) Recordings() model.RecordingSnapshot {
	return model.RecordingSnapshot{Status: model.RecordingIdle, Recordings: d.recs}
}

func (d *fakeDeck) Select(_ context.Context, index int) error {
	d.call("select")
	if index < 0 || index >= len(d.tracks) {
		return nil
	}
	d.index = index
	t := d.tracks[index]
	d.playback = model.PlaybackSnapshot{Status: model.PlaybackLoading, Track: &t}
	return nil
}

func (d *fakeDeck) Next(context.Context) error     { d.call("next"); return nil }
func (d *fakeDeck) Previous(context.Context) error { d.call("previous"); return nil }
func (d *fakeDeck) Pause(context.Context) error    { d.call("pause"); return nil }
func (d *fakeDeck) Resume(context.Context) error   { d.call("resume"); return nil }
func (d *fakeDeck) Stop(context.Context) error     { d.call("stop"); return nil }
func (d *fakeDeck) Exit(context.Context) error     { d.call("exit"); return nil }

func (d *fakeDeck) StartRecording(context.Context) error {
	d.call("record")
	return d.startErr
}

func (d *fakeDeck) StopRecording(context.Context) (model.Recording, error) {
	d.call("finish")
	rec := model.Recording{ID: "r1", SourceURI: "file:///r1.wav", DurationMillis: 5000}
	d.recs = append(d.recs, rec)
	return rec, nil
}

func (d *fakeDeck) PlayRecording(_ context.Context, index int) (model.Recording, error) {
	d.call("play")
	if index < 0 || index >= len(d.recs) {
		return model.Recording{}, model.ErrOutOfRange
	}
	return d.recs[index], nil
}

func runScript(t *testing.T, deck *fakeDeck, script string) string {
	t.Helper()
	var out bytes.Buffer
	sh := New(deck, Lines(strings.NewReader(script), &out, ""), &out)
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

func TestShell_NavigationCommands(t *testing.T) {
	deck := newFakeDeck()
	out := runScript(t, deck, "select 1\nnext\nprev\npause\nresume\nstop\nexit\n")

	assert.Equal(t, []string{"select", "next", "previous", "pause", "resume", "stop", "exit"}, deck.calls)
	assert.Contains(t, out, "LOADING b.wav 0:00")
}

func TestShell_TracksMarksSelection(t *testing.T) {
	deck := newFakeDeck()
	out := runScript(t, deck, "tracks\nselect 0\ntracks\n")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "   0  a.wav", lines[0])
	assert.Equal(t, "*  0  a.wav", lines[3])
	assert.Equal(t, "   1  b.wav", lines[4])
}

func TestShell_RecordAndReplay(t *testing.T) {
	deck := newFakeDeck()
	out := runScript(t, deck, "record\nfinish\nrecordings\nplay 0\n")

	assert.Contains(t, out, "saved r1 (0:05)")
	assert.Contains(t, out, "   0  0:05  r1")
	assert.Contains(t, out, "playing recording r1")
}

func TestShell_ErrorsDoNotEndSession(t *testing.T) {
	deck := newFakeDeck()
	deck.startErr = model.ErrPermissionDenied
	out := runScript(t, deck, "record\nbogus\nselect x\nplay 3\nstatus\n")

	assert.Contains(t, out, "error: permission denied")
	assert.Contains(t, out, `error: unknown command "bogus", try help`)
	assert.Contains(t, out, `error: select: invalid index "x"`)
	assert.Contains(t, out, "error: navigation out of range")
	assert.Contains(t, out, "IDLE - 0:00")
}

func TestShell_QuitStopsReading(t *testing.T) {
	deck := newFakeDeck()
	runScript(t, deck, "# comment\n\nrefresh\nquit\nnext\n")
	assert.Equal(t, []string{"refresh"}, deck.calls)
}

func TestShell_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := New(newFakeDeck(), Lines(strings.NewReader("next\n"), &out, "> "), &out).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestShell_PromptBeforeEachLine(t *testing.T) {
	var out bytes.Buffer
	deck := newFakeDeck()
	require.NoError(t, New(deck, Lines(strings.NewReader("refresh\n"), &out, "> "), &out).Run(context.Background()))
	assert.Equal(t, "> 2 tracks\n> ", out.String())
}

func TestCommandsAreAllKnown(t *testing.T) {
	sh := New(newFakeDeck(), Lines(strings.NewReader(""), io.Discard, ""), io.Discard)
	for _, cmd := range Commands() {
		if cmd == "select" || cmd == "play" || cmd == "quit" {
			continue
		}
		err := sh.Exec(context.Background(), cmd)
		if err != nil {
			assert.NotContains(t, err.Error(), "unknown command", cmd)
		}
	}
}
