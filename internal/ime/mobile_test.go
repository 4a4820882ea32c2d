package ime

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softkeys/internal/config"
	"softkeys/internal/logging"
)

type click struct {
	sound string
	size  int
	rate  int
}

type fakeHost struct {
	clicks  []click
	haptics []string
	system  []string
}

func (h *fakeHost) PlayClick(sound string, pcm []byte, sampleRate int) {
	h.clicks = append(h.clicks, click{sound, len(pcm), sampleRate})
}

func (h *fakeHost) Vibrate(style string) { h.haptics = append(h.haptics, style) }

func (h *fakeHost) PerformSystemAction(name string) { h.system = append(h.system, name) }

func newTestKeyboard(t *testing.T, cfg *config.Config) (*MobileKeyboard, *fakeHost) {
	t.Helper()
	host := &fakeHost{}
	m, err := newMobileKeyboard(cfg, nil, host, host, logging.Discard(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, host
}

func decodeState(t *testing.T, m *MobileKeyboard) State {
	t.Helper()
	data, err := m.StateJSON()
	require.NoError(t, err)
	var st State
	require.NoError(t, json.Unmarshal([]byte(data), &st))
	return st
}

func TestMobileKeyboardTyping(t *testing.T) {
	m, _ := newTestKeyboard(t, testConfig())

	assert.Equal(t, "alphabetic:uppercased", m.KeyboardType())
	require.NoError(t, m.TypeKey("h"))
	require.NoError(t, m.TypeKey("e"))
	require.NoError(t, m.TypeKey("l"))
	assert.Equal(t, "alphabetic:lowercased", m.KeyboardType())

	st := decodeState(t, m)
	assert.Equal(t, "Hel", st.TextBefore)
	assert.Equal(t, "en", st.Locale)
	require.Len(t, st.Suggestions, 3)
	assert.True(t, st.Suggestions[0].IsUnknown)

	data, err := m.SuggestionsJSON()
	require.NoError(t, err)
	assert.Contains(t, data, `"text":"Hello"`)

	require.NoError(t, m.ApplySuggestion(2))
	assert.Equal(t, "Help ", decodeState(t, m).TextBefore)

	assert.Error(t, m.ApplySuggestion(0), "no suggestions after a space")
}

func TestMobileKeyboardHandle(t *testing.T) {
	m, host := newTestKeyboard(t, testConfig())

	require.NoError(t, m.Handle("tap", "character:a"))
	require.NoError(t, m.Handle("longPress", "backspace"))
	require.NoError(t, m.Handle("tap", "dismissKeyboard"))

	assert.Error(t, m.Handle("swipe", "space"))
	assert.Error(t, m.Handle("tap", "warp"))

	assert.True(t, m.CanHandle("tap", "space"))
	assert.False(t, m.CanHandle("tap", "none"))
	assert.False(t, m.CanHandle("bogus", "space"))

	assert.Equal(t, []string{"dismissKeyboard"}, host.system)
	assert.Equal(t, []string{"light", "medium", "light"}, host.haptics)
	require.Len(t, host.clicks, 3)
	assert.Equal(t, "input", host.clicks[0].sound)
	assert.Equal(t, "delete", host.clicks[1].sound)
	assert.Equal(t, 44100, host.clicks[0].rate)
	assert.Positive(t, host.clicks[0].size)
}

func TestMobileKeyboardDrag(t *testing.T) {
	m, _ := newTestKeyboard(t, testConfig())
	for _, c := range []string{"a", "b", "c"} {
		require.NoError(t, m.TypeKey(c))
	}

	require.NoError(t, m.HandleDrag("space", 50, 0, 30, 0))
	st := decodeState(t, m)
	assert.Equal(t, "A", st.TextBefore)
	assert.Equal(t, "bc", st.TextAfter)
	require.NoError(t, m.EndDrag())

	assert.Error(t, m.HandleDrag("nope", 0, 0, 0, 0))
}

func TestMobileKeyboardEmojis(t *testing.T) {
	m, _ := newTestKeyboard(t, testConfig())

	data, err := m.FrequentEmojisJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", data)

	require.NoError(t, m.Handle("tap", "emoji:🚀"))
	data, err = m.FrequentEmojisJSON()
	require.NoError(t, err)
	assert.Equal(t, `["🚀"]`, data)

	stats, err := m.StatsJSON()
	require.NoError(t, err)
	assert.Contains(t, stats, `"emojis":1`)
}

func TestMobileKeyboardMetrics(t *testing.T) {
	m, _ := newTestKeyboard(t, testConfig())
	require.NoError(t, m.Handle("tap", "character:a"))

	text, err := m.MetricsText()
	require.NoError(t, err)
	assert.Contains(t, text, "# TYPE softkeys_sessions_total counter")
	assert.Contains(t, text, `softkeys_gestures_total{action="character",gesture="tap"}`)
}

func TestMobileKeyboardClickPCM(t *testing.T) {
	m, _ := newTestKeyboard(t, testConfig())

	for _, sound := range []string{"input", "delete", "system"} {
		pcm, err := m.ClickPCM(sound)
		require.NoError(t, err, sound)
		assert.NotEmpty(t, pcm, sound)
		assert.Zero(t, len(pcm)%4, "16-bit stereo frames")
	}

	_, err := m.ClickPCM("boom")
	assert.Error(t, err)
}

func TestMobileKeyboardRecoversPanics(t *testing.T) {
	m, _ := newTestKeyboard(t, testConfig())

	err := m.guard("explode", func() error { panic("boom") })
	assert.Error(t, err)

	data, err := m.CrashReportsJSON()
	require.NoError(t, err)
	assert.Contains(t, data, "explode")
	assert.Contains(t, data, m.session.ID())
}

func TestNewMobileKeyboardFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := testConfig()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(dir, "softkeys.log")
	require.NoError(t, config.SaveConfig(cfg, path))

	m, err := NewMobileKeyboard(path, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.WatchConfig())
	require.NoError(t, m.TypeKey("q"))
	assert.Equal(t, "alphabetic:lowercased", m.KeyboardType())
	require.NoError(t, m.Close())

	require.NoError(t, writeFile(filepath.Join(dir, "broken.json"), `{"feedback": {"volume": "loud"}}`))
	_, err = NewMobileKeyboard(filepath.Join(dir, "broken.json"), nil, nil, nil)
	assert.Error(t, err)
}

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o600)
}
