// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// Dispatch resolves the transition for ev from *state and applies it.
// It is the only place session state changes.
func Dispatch[S ~string](m *Machine[S], state *S, ev EventKind) (Transition[S], error) {
	tr, ok := m.TransitionFor(*state, ev)
	if !ok {
		return illegalTransition(m, *state, ev)
	}
	ApplyTransition(m, state, tr)
	return tr, nil
}

// ApplyTransition mutates state according to tr.
func ApplyTransition[S ~string](m *Machine[S], state *S, tr Transition[S]) {
	*state = tr.To
	if m.onApply != nil {
		m.onApply(tr.From, tr.To)
	}
}
