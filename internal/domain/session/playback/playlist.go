// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/metrics"
)

// Controller sequences navigation commands against the track list and the session.
// Navigation commands are single-flight: each holds mu until its engine calls return,
// so the session never sees two overlapping loads.
type Controller struct {
	session *Session
	resume  ports.ResumeStore
	now     func() time.Time
	logger  zerolog.Logger

	mu     sync.Mutex
	tracks []model.Track
	index  int
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithResumeStore persists stop positions per track.
func WithResumeStore(store ports.ResumeStore) ControllerOption {
	return func(c *Controller) { c.resume = store }
}

// WithClock overrides the time source used for resume timestamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller with an empty track list and no selection.
func NewController(session *Session, opts ...ControllerOption) *Controller {
	if session == nil {
		panic("invariant violation: session is nil in playback.NewController")
	}
	c := &Controller{
		session: session,
		now:     time.Now,
		logger:  mdlog.WithComponent("playlist"),
		index:   model.NoIndex,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the playback session driven by this controller.
func (c *Controller) Session() *Session { return c.session }

// SetTracks replaces the track list. The selection survives if the selected track
// is still listed; otherwise playback exits to the list view.
func (c *Controller) SetTracks(ctx context.Context, tracks []model.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == model.NoIndex {
		c.tracks = append([]model.Track(nil), tracks...)
		return nil
	}
	current := c.tracks[c.index].ID
	for i, t := range tracks {
		if t.ID == current {
			c.tracks = append([]model.Track(nil), tracks...)
			c.index = i
			return nil
		}
	}
	err := c.exitLocked(ctx)
	c.tracks = append([]model.Track(nil), tracks...)
	return err
}

// SelectTrack resets the session and loads tracks[index]. Out-of-range indexes are ignored.
func (c *Controller) SelectTrack(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(ctx, index, "select")
}

// Next stops the current track and selects the following one. There is no wraparound.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepLocked(ctx, +1, "next")
}

// Previous stops the current track and selects the preceding one.
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepLocked(ctx, -1, "previous")
}

// Pause pauses the current track.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Pause(ctx)
}

// Stop tears down playback of the selected track and remembers its position.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked(ctx)
}

// Resume reloads the selected track at the last known position. A position the
// engine reported for this selection wins; otherwise the resume store is used,
// and failing that the offset the track was last loaded at.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == model.NoIndex {
		return nil
	}
	track := c.tracks[c.index]

	source := "session"
	offset, ok := c.session.ReportedPosition(track.ID)
	if !ok {
		if stored, found := c.storedPosition(ctx, track.ID); found {
			offset, source = stored, "store"
		} else {
			offset, _ = c.session.Position()
			source = "load_offset"
		}
	}
	c.logger.Debug().
		Str(mdlog.FieldTrackID, track.ID).
		Int64(mdlog.FieldOffsetMs, offset).
		Str("source", source).
		Msg("resuming track")
	return c.session.Load(ctx, track, offset)
}

func (c *Controller) storedPosition(ctx context.Context, trackID string) (int64, bool) {
	if c.resume == nil {
		return 0, false
	}
	point, err := c.resume.Get(ctx, trackID)
	if err != nil {
		c.logger.Warn().Err(err).Str(mdlog.FieldTrackID, trackID).Msg("resume lookup failed")
		return 0, false
	}
	if point == nil {
		return 0, false
	}
	return point.PositionMillis, true
}

// Exit stops playback, clears the selection and forgets the position.
func (c *Controller) Exit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitLocked(ctx)
}

// PlayTrack plays a track that is not part of the list, such as a recording.
// The list selection is cleared because the session no longer holds a listed track.
func (c *Controller) PlayTrack(ctx context.Context, track model.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index != model.NoIndex {
		if err := c.stopLocked(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("stop before external play failed")
		}
	}
	c.index = model.NoIndex
	if err := c.session.Reset(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("reset before external play failed")
	}
	return c.session.Load(ctx, track, 0)
}

// Snapshot returns a consistent copy of the playlist state.
func (c *Controller) Snapshot() model.PlaylistSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := model.PlaylistSnapshot{
		Tracks:       append([]model.Track(nil), c.tracks...),
		CurrentIndex: c.index,
		Playback:     c.session.Snapshot(),
	}
	if c.index != model.NoIndex && snap.Playback.HasPosition {
		pos := snap.Playback.PositionMillis
		snap.PositionMillis = &pos
	}
	return snap
}

func (c *Controller) stepLocked(ctx context.Context, delta int, direction string) error {
	if c.index == model.NoIndex {
		metrics.IncNavigationNoop(direction)
		return nil
	}
	target := c.index + delta
	if target < 0 || target >= len(c.tracks) {
		metrics.IncNavigationNoop(direction)
		c.logger.Debug().Int(mdlog.FieldIndex, c.index).Str("direction", direction).Msg("navigation at list boundary ignored")
		return nil
	}
	if err := c.stopLocked(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("stop before navigation failed")
	}
	return c.selectLocked(ctx, target, direction)
}

func (c *Controller) selectLocked(ctx context.Context, index int, direction string) error {
	if index < 0 || index >= len(c.tracks) {
		metrics.IncNavigationNoop(direction)
		return nil
	}
	c.index = index
	if err := c.session.Reset(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("reset before select failed")
	}
	c.logger.Info().
		Int(mdlog.FieldIndex, index).
		Str(mdlog.FieldTrackID, c.tracks[index].ID).
		Msg("track selected")
	return c.session.Load(ctx, c.tracks[index], 0)
}

func (c *Controller) stopLocked(ctx context.Context) error {
	if err := c.session.Stop(ctx); err != nil {
		return err
	}
	if c.resume == nil || c.index == model.NoIndex {
		return nil
	}
	track := c.tracks[c.index]
	// An unconfirmed load offset must not overwrite a stored point.
	pos, ok := c.session.ReportedPosition(track.ID)
	if !ok {
		return nil
	}
	if err := c.resume.Put(ctx, track.ID, &ports.ResumePoint{PositionMillis: pos, UpdatedAt: c.now()}); err != nil {
		c.logger.Warn().Err(err).Str(mdlog.FieldTrackID, track.ID).Msg("failed to store resume point")
	}
	return nil
}

func (c *Controller) exitLocked(ctx context.Context) error {
	err := c.session.Stop(ctx)
	if c.resume != nil && c.index != model.NoIndex {
		if dErr := c.resume.Delete(ctx, c.tracks[c.index].ID); dErr != nil {
			c.logger.Warn().Err(dErr).Msg("failed to forget resume point")
		}
	}
	c.index = model.NoIndex
	if rErr := c.session.Reset(ctx); rErr != nil && err == nil {
		err = rErr
	}
	return err
}
