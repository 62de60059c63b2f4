// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/config"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/health"
	"github.com/ManuGH/mediadeck/internal/version"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func isolatedEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(config.EnvAudioOutput, "null")
	t.Setenv(config.EnvLibraryWatch, "false")
	lib := filepath.Join(dir, "library")
	require.NoError(t, os.MkdirAll(lib, 0o755))
	return lib
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
	assert.Contains(t, out, version.Version)
}

func TestListCommand(t *testing.T) {
	lib := isolatedEnv(t)
	t.Setenv(config.EnvLibraryAudio, lib)
	for _, name := range []string{"b.wav", "a.wav", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(lib, name), []byte("x"), 0o600))
	}

	out, err := execute(t, "", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "INDEX"))
	assert.Contains(t, lines[1], "a.wav")
	assert.Contains(t, lines[2], "b.wav")
	assert.NotContains(t, out, "notes.txt")

	out, err = execute(t, "", "list", "--limit", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "b.wav")
}

func TestListCommand_Errors(t *testing.T) {
	isolatedEnv(t)

	_, err := execute(t, "", "list", "--kind", "microphone")
	require.ErrorContains(t, err, "unknown library kind")

	_, err = execute(t, "", "list")
	require.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestListCommand_InvalidConfig(t *testing.T) {
	isolatedEnv(t)
	t.Setenv(config.EnvListLimit, "0")

	_, err := execute(t, "", "list")
	require.ErrorContains(t, err, "invalid config")
}

func TestHealthcheckCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(health.NewManager("v9").ServeHealth))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	out, err := execute(t, "", "healthcheck", "--addr", addr)
	require.NoError(t, err)
	assert.Equal(t, "healthy (version v9)\n", out)
}

func TestShellCommand(t *testing.T) {
	lib := isolatedEnv(t)
	t.Setenv(config.EnvLibraryAudio, lib)
	require.NoError(t, os.WriteFile(filepath.Join(lib, "a.wav"), []byte("x"), 0o600))

	out, err := execute(t, "tracks\nstatus\nquit\n", "shell", "--prompt", "")
	require.NoError(t, err)
	assert.Contains(t, out, "1 tracks, type help for commands")
	assert.Contains(t, out, "   0  a.wav")
	assert.Contains(t, out, "IDLE - 0:00")
}
