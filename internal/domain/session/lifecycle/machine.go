// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

const (
	ForbiddenOutOfOrder     = "out_of_order"
	ForbiddenAlreadyInState = "already_in_state"
	ForbiddenUnknownEvent   = "unknown_event"
)

// Transition is a single allowed edge in a lifecycle state machine.
type Transition[S ~string] struct {
	From  S
	To    S
	Event EventKind
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// Machine is a table-driven state machine over a string-typed state.
type Machine[S ~string] struct {
	name    string
	initial S
	states  []S
	table   []Transition[S]
	onApply func(from, to S)
}

// Name identifies the machine in logs and metrics.
func (m *Machine[S]) Name() string { return m.name }

// Initial returns the state a fresh session starts in.
func (m *Machine[S]) Initial() S { return m.initial }

// States returns every state the machine declares.
func (m *Machine[S]) States() []S {
	return append([]S(nil), m.states...)
}

// Transitions returns a copy of the transition table.
func (m *Machine[S]) Transitions() []Transition[S] {
	return append([]Transition[S](nil), m.table...)
}

// TransitionFor returns the allowed transition for a given state+event.
func (m *Machine[S]) TransitionFor(from S, ev EventKind) (Transition[S], bool) {
	for _, tr := range m.table {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition[S]{}, false
}

// DecisionFor explains whether ev is accepted in state from.
func (m *Machine[S]) DecisionFor(from S, ev EventKind) Decision {
	if _, ok := m.TransitionFor(from, ev); ok {
		return allowed()
	}
	known := false
	for _, tr := range m.table {
		if tr.Event != ev {
			continue
		}
		known = true
		if tr.To == from {
			return forbid(ForbiddenAlreadyInState)
		}
	}
	if !known {
		return forbid(ForbiddenUnknownEvent)
	}
	return forbid(ForbiddenOutOfOrder)
}

// Can reports whether ev is accepted in state from.
func (m *Machine[S]) Can(from S, ev EventKind) bool {
	return m.DecisionFor(from, ev).Allowed
}
