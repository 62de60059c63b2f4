package media

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func fileURI(path string) string { return "file://" + filepath.ToSlash(path) }

func TestFSProvider_ListAudio(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.wav"))
	touch(t, filepath.Join(root, "a.WAV"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.wav"))
	touch(t, filepath.Join(root, "album", "c.wav"))
	touch(t, filepath.Join(root, ".cache", "d.wav"))

	p := NewFSProvider(Config{Roots: map[model.AssetKind]string{model.AssetAudio: root}})
	got, err := p.ListAssets(context.Background(), model.AssetAudio, 0)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	want := []ports.Asset{
		{ID: assetID(model.AssetAudio, "a.WAV"), URI: fileURI(filepath.Join(resolved, "a.WAV")), Filename: "a.WAV"},
		{ID: assetID(model.AssetAudio, "album/c.wav"), URI: fileURI(filepath.Join(resolved, "album", "c.wav")), Filename: "c.wav"},
		{ID: assetID(model.AssetAudio, "b.wav"), URI: fileURI(filepath.Join(resolved, "b.wav")), Filename: "b.wav"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListAssets mismatch (-want +got):\n%s", diff)
	}
}

func TestFSProvider_LimitAndDepth(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 25; i++ {
		touch(t, filepath.Join(root, "track-"+string(rune('a'+i))+".wav"))
	}
	touch(t, filepath.Join(root, "deep", "deeper", "x.wav"))

	p := NewFSProvider(Config{Roots: map[model.AssetKind]string{model.AssetAudio: root}, MaxDepth: 1})
	got, err := p.ListAssets(context.Background(), model.AssetAudio, 20)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	all, err := p.ListAssets(context.Background(), model.AssetAudio, -1)
	require.NoError(t, err)
	assert.Len(t, all, 25, "files below MaxDepth are not listed")
}

func TestFSProvider_IDsAreStable(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.wav"))
	p := NewFSProvider(Config{Roots: map[model.AssetKind]string{model.AssetAudio: root}})

	first, err := p.ListAssets(context.Background(), model.AssetAudio, 0)
	require.NoError(t, err)
	touch(t, filepath.Join(root, "0.wav"))
	second, err := p.ListAssets(context.Background(), model.AssetAudio, 0)
	require.NoError(t, err)

	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[1].ID)
}

func TestFSProvider_Permissions(t *testing.T) {
	root := t.TempDir()
	fifo := filepath.Join(t.TempDir(), "capture.pcm")
	touch(t, fifo)

	p := NewFSProvider(Config{
		Roots:      map[model.AssetKind]string{model.AssetAudio: root, model.AssetPhoto: filepath.Join(root, "missing")},
		Microphone: CaptureAvailable(fifo),
	})
	ctx := context.Background()

	tests := []struct {
		kind model.AssetKind
		want model.Permission
	}{
		{model.AssetAudio, model.PermissionGranted},
		{model.AssetPhoto, model.PermissionDenied},
		{model.AssetVideo, model.PermissionDenied},
		{model.AssetMicrophone, model.PermissionGranted},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := p.RequestPermission(ctx, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.RequestPermission(ctx, "radio")
	assert.ErrorIs(t, err, ErrUnknownKind)

	noMic := NewFSProvider(Config{})
	got, err := noMic.RequestPermission(ctx, model.AssetMicrophone)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionDenied, got)
}

func TestFSProvider_ListErrors(t *testing.T) {
	p := NewFSProvider(Config{})
	_, err := p.ListAssets(context.Background(), model.AssetAudio, 20)
	assert.Error(t, err)
	_, err = p.ListAssets(context.Background(), model.AssetMicrophone, 20)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	w, err := NewWatcher(root, 200*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(root, "burst-"+string(rune('a'+i))+".wav"))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of changes must fire once")

	cancel()
	<-done
	w.Close()
}
