// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !debug

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/mediadeck/internal/metrics"
)

func illegalTransition[S ~string](m *Machine[S], from S, ev EventKind) (Transition[S], error) {
	metrics.IncIllegalTransition(m.name, ev.String())
	return Transition[S]{From: from, To: from, Event: ev},
		fmt.Errorf("%w: %s %s + %v (%s)", ErrIllegalTransition, m.name, from, ev, m.DecisionFor(from, ev).Reason)
}
