// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build debug

package lifecycle

import "fmt"

func illegalTransition[S ~string](m *Machine[S], from S, ev EventKind) (Transition[S], error) {
	panic(fmt.Sprintf("illegal %s transition: %s + %v", m.name, from, ev))
}
