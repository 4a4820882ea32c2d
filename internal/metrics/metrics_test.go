package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softkeys/internal/dispatch"
	"softkeys/internal/keyboard"
)

func TestLabelsString(t *testing.T) {
	assert.Equal(t, "", Labels(nil).String())
	assert.Equal(t, `{action="space",gesture="tap"}`, Labels{"gesture": "tap", "action": "space"}.String())
}

func TestRegistryDeduplicates(t *testing.T) {
	r := NewRegistry("softkeys", "test")

	c1 := r.RegisterCounter("events_total", "Events", Labels{"kind": "a"})
	c2 := r.RegisterCounter("events_total", "Events", Labels{"kind": "a"})
	c3 := r.RegisterCounter("events_total", "Events", Labels{"kind": "b"})
	assert.Same(t, c1, c2)
	assert.NotSame(t, c1, c3)
	assert.Equal(t, "softkeys_test_events_total", c1.Name())

	c1.Inc()
	c1.Add(2)
	assert.EqualValues(t, 3, c2.Value())
	assert.Zero(t, c3.Value())

	g := r.RegisterGauge("open", "Open things", nil)
	g.Inc()
	g.Inc()
	g.Dec()
	assert.EqualValues(t, 1, r.RegisterGauge("open", "Open things", nil).Value())
	g.Set(7)
	assert.EqualValues(t, 7, g.Value())
}

func TestHistogram(t *testing.T) {
	h := NewHistogram("latency", "Latency", nil, []float64{1, 0.1, 0.5})

	h.Observe(0.1) // upper-inclusive
	h.Observe(0.3)
	h.Observe(5)
	assert.EqualValues(t, 3, h.Count())
	assert.InDelta(t, 5.4, h.Sum(), 1e-9)
	assert.InDelta(t, 1.8, h.Mean(), 1e-9)

	h.mu.Lock()
	assert.Equal(t, []uint64{1, 2, 2, 3}, h.cumulative())
	h.mu.Unlock()

	empty := NewHistogram("x", "", nil, nil)
	assert.Zero(t, empty.Mean())
	assert.Len(t, empty.buckets, len(LatencyBuckets))
}

func TestHistogramTimer(t *testing.T) {
	h := NewHistogram("t", "", nil, nil)
	timer := h.Timer()
	time.Sleep(time.Millisecond)
	d := timer.Stop()
	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.EqualValues(t, 1, h.Count())
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("softkeys", "")
	r.RegisterCounter("gestures_total", "Gestures", Labels{"gesture": "tap"}).Add(3)
	r.RegisterCounter("gestures_total", "Gestures", Labels{"gesture": "longPress"}).Inc()
	r.RegisterGauge("active_sessions", "Sessions", nil).Set(1)
	r.RegisterHistogram("refresh_seconds", "Refresh", Labels{"locale": "en"}, []float64{0.5}).Observe(0.25)

	var buf bytes.Buffer
	require.NoError(t, r.WritePrometheus(&buf))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "# TYPE softkeys_gestures_total counter"))
	assert.Contains(t, out, `softkeys_gestures_total{gesture="tap"} 3`)
	assert.Contains(t, out, `softkeys_gestures_total{gesture="longPress"} 1`)
	assert.Less(t, strings.Index(out, "longPress"), strings.Index(out, `gesture="tap"`))
	assert.Contains(t, out, "softkeys_active_sessions 1")
	assert.Contains(t, out, `softkeys_refresh_seconds_bucket{locale="en",le="0.5"} 1`)
	assert.Contains(t, out, `softkeys_refresh_seconds_bucket{locale="en",le="+Inf"} 1`)
	assert.Contains(t, out, `softkeys_refresh_seconds_count{locale="en"} 1`)
}

func TestWriteJSONAndReset(t *testing.T) {
	r := NewRegistry("", "")
	r.RegisterCounter("hits", "Hits", nil).Add(4)
	r.RegisterHistogram("lat", "Latency", nil, nil).Observe(0.002)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 4, decoded["hits"])
	assert.EqualValues(t, 1, decoded["lat_count"])

	r.Reset()
	snap := r.Snapshot()
	assert.EqualValues(t, 0, snap["hits"])
	assert.EqualValues(t, 0, snap["lat_count"])
}

func TestKeyboardMetricsObserver(t *testing.T) {
	m := NewKeyboardMetrics(NewRegistry("softkeys", ""))
	observe := m.Observer()

	observe(dispatch.StepEffect, keyboard.Tap, keyboard.Character("a"))
	observe(dispatch.StepEffect, keyboard.Tap, keyboard.Character("b"))
	observe(dispatch.StepFeedback, keyboard.Tap, keyboard.Character("b"))
	observe(dispatch.StepEffect, keyboard.Tap, keyboard.Emoji("🚀"))
	observe(dispatch.StepEmoji, keyboard.Tap, keyboard.Emoji("🚀"))
	observe(dispatch.StepEmoji, keyboard.LongPress, keyboard.Emoji("🚀"))

	assert.EqualValues(t, 2, m.Gesture(keyboard.Tap, keyboard.ActionCharacter).Value())
	assert.EqualValues(t, 1, m.Gesture(keyboard.Tap, keyboard.ActionEmoji).Value())
	assert.EqualValues(t, 1, m.EmojisTotal.Value())
}

func TestKeyboardMetricsTimeAutocomplete(t *testing.T) {
	m := NewKeyboardMetrics(NewRegistry("", ""))
	calls := 0
	refresh := m.TimeAutocomplete(func() { calls++ })
	refresh()
	refresh()
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 2, m.AutocompleteDuration.Count())
}

func TestDefaultRegistry(t *testing.T) {
	old := Default()
	t.Cleanup(func() { SetDefault(old) })

	r := NewRegistry("x", "")
	SetDefault(r)
	assert.Same(t, r, NewKeyboardMetrics(nil).Registry())
}
