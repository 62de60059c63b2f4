// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"
	"time"
)

// ResumePoint is the last known position of a track.
type ResumePoint struct {
	PositionMillis int64
	UpdatedAt      time.Time
}

// ResumeStore keeps resume points per track ID.
// Get returns nil, nil when nothing is stored.
type ResumeStore interface {
	Put(ctx context.Context, trackID string, point *ResumePoint) error
	Get(ctx context.Context, trackID string) (*ResumePoint, error)
	Delete(ctx context.Context, trackID string) error
	Close() error
}
