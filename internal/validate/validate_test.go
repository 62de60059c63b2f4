// SPDX-License-Identifier: MIT

package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_AccumulatesErrors(t *testing.T) {
	v := New()
	v.Range("ListLimit", 0, 1, 500)
	v.Positive("SampleRate", -1)
	v.OneOf("Backend", "redis", []string{"memory", "sqlite"})

	require.False(t, v.IsValid())
	err := v.Err()
	require.Error(t, err)

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors(), 3)
	assert.Equal(t, "ListLimit", verr.Errors()[0].Field)
	assert.Contains(t, err.Error(), "; ")
}

func TestValidator_NoErrors(t *testing.T) {
	v := New()
	v.Range("ListLimit", 20, 1, 500)
	v.ListenAddr("Listen", "127.0.0.1:8088")
	v.ListenAddr("Listen", ":0")
	v.Extensions("Ext", []string{".wav", ".WAV"})
	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())
}

func TestValidator_ListenAddr(t *testing.T) {
	for _, addr := range []string{"", "8088", "host:", "host:99999", "host:abc"} {
		t.Run(addr, func(t *testing.T) {
			v := New()
			v.ListenAddr("Listen", addr)
			assert.False(t, v.IsValid())
		})
	}
}

func TestValidator_Extensions(t *testing.T) {
	tests := map[string][]string{
		"empty":      nil,
		"no dot":     {"wav"},
		"only dot":   {"."},
		"separator":  {".w/av"},
		"whitespace": {".w av"},
	}
	for name, exts := range tests {
		t.Run(name, func(t *testing.T) {
			v := New()
			v.Extensions("Ext", exts)
			assert.False(t, v.IsValid())
		})
	}
}

func TestValidator_Directory(t *testing.T) {
	base := t.TempDir()

	v := New()
	created := filepath.Join(base, "new", "dir")
	v.Directory("DataDir", created, false)
	require.True(t, v.IsValid())
	info, err := os.Stat(created)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	v = New()
	v.Directory("Library", filepath.Join(base, "missing"), true)
	assert.False(t, v.IsValid())

	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	v = New()
	v.Directory("Library", file, true)
	assert.False(t, v.IsValid())

	v = New()
	v.Directory("Library", "../escape", false)
	assert.False(t, v.IsValid())
}

func TestLogLevel(t *testing.T) {
	assert.True(t, LogLevelDebug.IsValid())
	assert.False(t, LogLevel("trace").IsValid())
}
