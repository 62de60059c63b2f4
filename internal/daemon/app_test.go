// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/log"
)

type fakeManager struct {
	startErr  error
	shutdowns atomic.Int32
}

func (m *fakeManager) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	<-ctx.Done()
	return nil
}

func (m *fakeManager) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	return nil
}

func (m *fakeManager) RegisterShutdownHook(string, ShutdownHook) {}

type countingLibrary struct {
	calls atomic.Int32
	err   error
}

func (l *countingLibrary) RefreshTracks(context.Context) ([]model.Track, error) {
	l.calls.Add(1)
	return nil, l.err
}

func TestApp_RunRequiresManager(t *testing.T) {
	app := NewApp(log.WithComponent("test"), nil, nil)
	require.ErrorIs(t, app.Run(context.Background()), ErrMissingManager)
}

func TestApp_RefreshesOnStartupAndSignal(t *testing.T) {
	lib := &countingLibrary{}
	signals := make(chan os.Signal, 1)
	app := NewApp(log.WithComponent("test"), &fakeManager{}, lib)
	app.signals = signals

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return lib.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	signals <- syscall.SIGHUP
	require.Eventually(t, func() bool { return lib.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestApp_RefreshFailureIsNotFatal(t *testing.T) {
	lib := &countingLibrary{err: model.ErrPermissionDenied}
	app := NewApp(log.WithComponent("test"), &fakeManager{}, lib)
	app.signals = make(chan os.Signal)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return lib.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestApp_StartErrorShutsDown(t *testing.T) {
	boom := errors.New("listen failed")
	mgr := &fakeManager{startErr: boom}
	app := NewApp(log.WithComponent("test"), mgr, nil)

	err := app.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), mgr.shutdowns.Load())
}
