package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineAbsPath(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	safe := filepath.Join(root, "safe.wav")
	require.NoError(t, os.WriteFile(safe, []byte("ok"), 0o600))
	secret := filepath.Join(outside, "secret.wav")
	require.NoError(t, os.WriteFile(secret, []byte("no"), 0o600))

	escape := filepath.Join(root, "escape.wav")
	require.NoError(t, os.Symlink(secret, escape))

	tests := []struct {
		name    string
		target  string
		wantErr error
		anyErr  bool
	}{
		{name: "inside", target: safe},
		{name: "missing file inside", target: filepath.Join(root, "later.wav")},
		{name: "outside", target: secret, wantErr: ErrOutsideRoots},
		{name: "dotdot", target: filepath.Join(root, "..", filepath.Base(outside), "secret.wav"), wantErr: ErrOutsideRoots},
		{name: "symlink escape", target: escape, wantErr: ErrOutsideRoots},
		{name: "relative", target: "safe.wav", anyErr: true},
		{name: "backslash", target: root + `\safe.wav`, anyErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConfineAbsPath(root, tt.target)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestConfineToRoots(t *testing.T) {
	library := t.TempDir()
	recordings := t.TempDir()
	clip := filepath.Join(recordings, "clip.wav")
	require.NoError(t, os.WriteFile(clip, []byte("ok"), 0o600))

	got, err := ConfineToRoots([]string{"", library, recordings}, clip)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(clip)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ConfineToRoots([]string{library}, clip)
	require.ErrorIs(t, err, ErrOutsideRoots)

	_, err = ConfineToRoots(nil, clip)
	require.ErrorIs(t, err, ErrOutsideRoots)
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(f, nil, 0o600))

	require.NoError(t, IsRegularFile(f))
	require.ErrorIs(t, IsRegularFile(dir), ErrNotRegular)
	require.Error(t, IsRegularFile(filepath.Join(dir, "missing.wav")))
}
