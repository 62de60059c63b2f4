// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlaybackTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_playback_transitions_total",
		Help: "Playback session state transitions",
	}, []string{"state_from", "state_to"})

	RecordingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_recording_transitions_total",
		Help: "Recording session state transitions",
	}, []string{"state_from", "state_to"})

	IllegalTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_illegal_transitions_total",
		Help: "Rejected state machine transitions by machine and event",
	}, []string{"machine", "event"})

	StaleStatusEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediadeck_stale_status_events_total",
		Help: "Engine status events discarded because their generation was superseded",
	})

	EngineFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_engine_failures_total",
		Help: "Audio engine call failures by operation",
	}, []string{"op"})

	RecordingsFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_recordings_finalized_total",
		Help: "Recording finalizations by result",
	}, []string{"result"})

	NavigationNoopTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_navigation_noop_total",
		Help: "Navigation commands ignored because the target index was out of range",
	}, []string{"direction"})

	PermissionDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadeck_permission_decisions_total",
		Help: "Permission requests by asset kind and outcome",
	}, []string{"kind", "outcome"})
)

// IncPlaybackTransition records a playback FSM edge.
func IncPlaybackTransition(from, to string) {
	PlaybackTransitionsTotal.WithLabelValues(from, to).Inc()
}

// IncRecordingTransition records a recording FSM edge.
func IncRecordingTransition(from, to string) {
	RecordingTransitionsTotal.WithLabelValues(from, to).Inc()
}

func IncIllegalTransition(machine, event string) {
	IllegalTransitionsTotal.WithLabelValues(machine, event).Inc()
}

func IncStaleStatusEvent() {
	StaleStatusEventsTotal.Inc()
}

func IncEngineFailure(op string) {
	EngineFailuresTotal.WithLabelValues(op).Inc()
}

func IncRecordingFinalized(result string) {
	RecordingsFinalizedTotal.WithLabelValues(result).Inc()
}

func IncNavigationNoop(direction string) {
	NavigationNoopTotal.WithLabelValues(direction).Inc()
}

func IncPermissionDecision(kind, outcome string) {
	PermissionDecisionsTotal.WithLabelValues(kind, outcome).Inc()
}
