package metrics

import (
	"softkeys/internal/dispatch"
	"softkeys/internal/keyboard"
)

// KeyboardMetrics holds the metrics of keyboard sessions.
type KeyboardMetrics struct {
	registry *Registry

	// Counters
	SessionsTotal           *Counter
	DragsTotal              *Counter
	SuggestionsAppliedTotal *Counter
	EmojisTotal             *Counter
	RejectedTotal           *Counter

	// Gauges
	ActiveSessions *Gauge

	// Histograms
	AutocompleteDuration *Histogram
}

// NewKeyboardMetrics creates and registers the keyboard metrics. A nil
// registry uses Default.
func NewKeyboardMetrics(registry *Registry) *KeyboardMetrics {
	if registry == nil {
		registry = Default()
	}

	return &KeyboardMetrics{
		registry: registry,

		SessionsTotal: registry.RegisterCounter(
			"sessions_total",
			"Total number of keyboard sessions started",
			nil,
		),
		DragsTotal: registry.RegisterCounter(
			"drags_total",
			"Total number of drag updates handled",
			nil,
		),
		SuggestionsAppliedTotal: registry.RegisterCounter(
			"suggestions_applied_total",
			"Total number of autocomplete suggestions applied",
			nil,
		),
		EmojisTotal: registry.RegisterCounter(
			"emojis_total",
			"Total number of emojis typed",
			nil,
		),
		RejectedTotal: registry.RegisterCounter(
			"rejected_total",
			"Total number of calls rejected by a closed session",
			nil,
		),

		ActiveSessions: registry.RegisterGauge(
			"active_sessions",
			"Number of currently open keyboard sessions",
			nil,
		),

		AutocompleteDuration: registry.RegisterHistogram(
			"autocomplete_duration_seconds",
			"Time spent refreshing autocomplete suggestions",
			nil,
			LatencyBuckets,
		),
	}
}

// Registry returns the registry the metrics are registered in.
func (m *KeyboardMetrics) Registry() *Registry {
	return m.registry
}

// Gesture returns the counter of handled gestures of kind g on actions
// of kind k.
func (m *KeyboardMetrics) Gesture(g keyboard.Gesture, k keyboard.ActionKind) *Counter {
	return m.registry.RegisterCounter(
		"gestures_total",
		"Total number of gestures handled, by gesture and action",
		Labels{"gesture": g.String(), "action": k.String()},
	)
}

// Observer returns a dispatch observer that counts handled gestures and
// typed emojis.
func (m *KeyboardMetrics) Observer() dispatch.Observer {
	return func(step dispatch.Step, g keyboard.Gesture, a keyboard.Action) {
		switch step {
		case dispatch.StepEffect:
			m.Gesture(g, a.Kind()).Inc()
		case dispatch.StepEmoji:
			if g == keyboard.Tap && a.IsEmoji() {
				m.EmojisTotal.Inc()
			}
		}
	}
}

// TimeAutocomplete wraps refresh so every call is observed in
// AutocompleteDuration.
func (m *KeyboardMetrics) TimeAutocomplete(refresh func()) func() {
	return func() {
		t := m.AutocompleteDuration.Timer()
		defer t.Stop()
		refresh()
	}
}
