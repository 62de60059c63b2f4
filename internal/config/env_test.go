// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers(t *testing.T) {
	t.Setenv("MD_TEST_STR", "hello")
	t.Setenv("MD_TEST_EMPTY", "")
	t.Setenv("MD_TEST_INT", "42")
	t.Setenv("MD_TEST_BADINT", "forty")
	t.Setenv("MD_TEST_DUR", "250ms")
	t.Setenv("MD_TEST_BOOL", "false")
	t.Setenv("MD_TEST_FLOAT", "-1.5")
	t.Setenv("MD_TEST_LIST", " .wav, .flac ,,")

	assert.Equal(t, "hello", ParseString("MD_TEST_STR", "x"))
	assert.Equal(t, "x", ParseString("MD_TEST_EMPTY", "x"))
	assert.Equal(t, "x", ParseString("MD_TEST_UNSET", "x"))
	assert.Equal(t, 42, ParseInt("MD_TEST_INT", 1))
	assert.Equal(t, 1, ParseInt("MD_TEST_BADINT", 1))
	assert.Equal(t, 250*time.Millisecond, ParseDuration("MD_TEST_DUR", time.Second))
	assert.False(t, ParseBool("MD_TEST_BOOL", true))
	assert.InDelta(t, -1.5, ParseFloat("MD_TEST_FLOAT", 0), 1e-9)
	assert.Equal(t, []string{".wav", ".flac"}, ParseList("MD_TEST_LIST", nil))
	assert.Equal(t, []string{".mp3"}, ParseList("MD_TEST_UNSET", []string{".mp3"}))
}
