// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"fmt"
	"math"
)

// FormatDuration renders milliseconds as "m:ss".
// Minutes are floored and seconds rounded; a rounding carry to 60 rolls into the minute.
func FormatDuration(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	minutes := float64(millis) / 1000 / 60
	whole := math.Floor(minutes)
	m := int64(whole)
	s := int64(math.Round((minutes - whole) * 60))
	if s == 60 {
		m++
		s = 0
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
