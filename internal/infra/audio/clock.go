// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audio

import "time"

// Clock schedules the engine status poll and the null output drain.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// RealClock schedules on wall time.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
