package ime

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softkeys/internal/action"
	"softkeys/internal/config"
	"softkeys/internal/dispatch"
	"softkeys/internal/feedback"
	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
	"softkeys/internal/metrics"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.Type = "memory"
	cfg.Autocomplete.Words = []string{"hello", "help", "world"}
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config, opts Options) (*Session, *Document) {
	t.Helper()
	doc := NewDocument("")
	if opts.Proxy == nil {
		opts.Proxy = doc
	}
	opts.Logger = logging.Discard()
	s, err := NewSession(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, doc
}

func tap(t *testing.T, s *Session, actions ...keyboard.Action) {
	t.Helper()
	for _, a := range actions {
		require.NoError(t, s.Handle(keyboard.Tap, a))
	}
}

type outputs struct {
	mu      sync.Mutex
	sounds  []feedback.AudioFeedback
	haptics []feedback.HapticFeedback
}

func (o *outputs) PlayClip(sound feedback.AudioFeedback, _ beep.StreamSeeker, _ beep.Format) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sounds = append(o.sounds, sound)
}

func (o *outputs) TriggerHaptic(h feedback.HapticFeedback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.haptics = append(o.haptics, h)
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Drag.Sensitivity = "twitchy"

	_, err := NewSession(cfg, Options{Logger: logging.Discard()})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSessionStartsAutocapitalized(t *testing.T) {
	s, _ := newTestSession(t, testConfig(), Options{})
	assert.Equal(t, keyboard.Alphabetic(keyboard.Uppercased), s.KeyboardType())
	assert.Equal(t, "en", s.Locale())

	cfg := testConfig()
	cfg.Keyboard.InitialType = "numeric"
	s, _ = newTestSession(t, cfg, Options{})
	assert.Equal(t, keyboard.Numeric(), s.KeyboardType())
}

func TestSessionTypingEndsSentence(t *testing.T) {
	s, doc := newTestSession(t, testConfig(), Options{})

	require.NoError(t, s.Type("h"))
	assert.Equal(t, keyboard.Alphabetic(keyboard.Lowercased), s.KeyboardType())
	require.NoError(t, s.Type("i"))
	assert.Equal(t, "Hi", doc.Text())

	tap(t, s, keyboard.Space(), keyboard.Space())
	assert.Equal(t, "Hi. ", doc.Text())
	assert.Equal(t, keyboard.Alphabetic(keyboard.Uppercased), s.KeyboardType())

	tap(t, s, keyboard.Backspace())
	assert.Equal(t, "Hi.", doc.Text())
}

func TestSessionTypeAppliesLocaleCasing(t *testing.T) {
	cfg := testConfig()
	cfg.Keyboard.Locales = []string{"tr", "en"}
	s, doc := newTestSession(t, cfg, Options{})

	require.NoError(t, s.Type("i"))
	assert.Equal(t, "İ", doc.Text())

	tap(t, s, keyboard.NextLocale())
	assert.Equal(t, "en", s.Locale())
}

func TestSessionSuggestions(t *testing.T) {
	s, doc := newTestSession(t, testConfig(), Options{})

	tap(t, s, keyboard.Character("H"), keyboard.Character("e"), keyboard.Character("l"))
	got := s.Suggestions()
	require.Len(t, got, 3)
	assert.Equal(t, keyboard.Suggestion{Text: "Hel", Title: `"Hel"`, IsUnknown: true}, got[0])
	assert.Equal(t, "Hello", got[1].Text)
	assert.Equal(t, "Help", got[2].Text)

	require.NoError(t, s.ApplySuggestion(got[1]))
	assert.Equal(t, "Hello ", doc.Text())
	assert.Empty(t, s.Suggestions())

	state := s.State()
	assert.Equal(t, "Hello ", state.TextBefore)
	assert.Equal(t, []string{"en"}, state.Locales)
	assert.Equal(t, "phone", state.Device)
}

func TestSessionID(t *testing.T) {
	s1, _ := newTestSession(t, testConfig(), Options{})
	s2, _ := newTestSession(t, testConfig(), Options{})
	assert.NotEmpty(t, s1.ID())
	assert.NotEqual(t, s1.ID(), s2.ID())
	assert.Equal(t, s1.ID(), s1.State().SessionID)

	var buf bytes.Buffer
	cfg := testConfig()
	s3, err := NewSession(cfg, Options{Logger: logging.NewWithWriter(nil, &buf)})
	require.NoError(t, err)
	t.Cleanup(func() { s3.Close() })
	assert.Contains(t, buf.String(), "session started")
	assert.Contains(t, buf.String(), s3.ID())
}

func TestSessionEmojiTracking(t *testing.T) {
	s, _ := newTestSession(t, testConfig(), Options{})

	tap(t, s, keyboard.Emoji("🎉"), keyboard.Emoji("😀"), keyboard.Emoji("😀"))
	assert.Equal(t, []string{"😀", "🎉"}, s.FrequentEmojis())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Emojis)
	assert.Equal(t, int64(3), stats.EmojiUses)
}

func TestSessionEmojiTrackingOff(t *testing.T) {
	cfg := testConfig()
	cfg.Emoji.Tracker = "none"
	s, _ := newTestSession(t, cfg, Options{})

	tap(t, s, keyboard.Emoji("😀"))
	assert.Nil(t, s.FrequentEmojis())
}

func TestSessionFeedback(t *testing.T) {
	out := &outputs{}
	s, _ := newTestSession(t, testConfig(), Options{Audio: out, Haptic: out})

	tap(t, s, keyboard.Character("a"), keyboard.Backspace())
	assert.Equal(t, []feedback.AudioFeedback{feedback.AudioInput, feedback.AudioDelete}, out.sounds)
	assert.Equal(t, []feedback.HapticFeedback{feedback.HapticLight, feedback.HapticLight}, out.haptics)
}

func TestSessionSystemActions(t *testing.T) {
	var performed []action.SystemAction
	s, _ := newTestSession(t, testConfig(), Options{
		System: dispatch.SystemFunc(func(a action.SystemAction) { performed = append(performed, a) }),
	})

	tap(t, s, keyboard.DismissKeyboard(), keyboard.NextKeyboard())
	assert.Equal(t, []action.SystemAction{action.SystemDismissKeyboard, action.SystemNextKeyboard}, performed)
}

func TestSessionKeyboardTypeCallback(t *testing.T) {
	var changes []keyboard.Type
	s, _ := newTestSession(t, testConfig(), Options{
		OnKeyboardTypeChanged: func(kt keyboard.Type) { changes = append(changes, kt) },
	})

	tap(t, s, keyboard.SwitchKeyboard(keyboard.Numeric()))
	tap(t, s, keyboard.Character("1"), keyboard.Space())
	assert.Equal(t, []keyboard.Type{
		keyboard.Alphabetic(keyboard.Uppercased),
		keyboard.Numeric(),
		keyboard.Alphabetic(keyboard.Lowercased),
	}, changes)
}

func TestSessionDrag(t *testing.T) {
	s, doc := newTestSession(t, testConfig(), Options{})
	doc.InsertText("hello")

	from := keyboard.Point{X: 100, Y: 10}
	require.NoError(t, s.HandleDrag(keyboard.Space(), from, keyboard.Point{X: 80, Y: 10}))
	assert.Equal(t, "hel", doc.DocumentContextBeforeInput())

	require.NoError(t, s.HandleDrag(keyboard.Space(), from, keyboard.Point{X: 90, Y: 40}))
	assert.Equal(t, "hell", doc.DocumentContextBeforeInput())

	require.NoError(t, s.HandleDrag(keyboard.Backspace(), from, keyboard.Point{X: 0}))
	assert.Equal(t, "hell", doc.DocumentContextBeforeInput())

	require.NoError(t, s.EndDrag())
	require.NoError(t, s.HandleDrag(keyboard.Space(), from, keyboard.Point{X: 110}))
	assert.Equal(t, "hello", doc.DocumentContextBeforeInput())
}

func TestSessionReleaseEndsDrag(t *testing.T) {
	s, doc := newTestSession(t, testConfig(), Options{})
	doc.InsertText("hello world")

	from := keyboard.Point{X: 100}
	require.NoError(t, s.HandleDrag(keyboard.Space(), from, keyboard.Point{X: 70}))
	assert.Equal(t, "hello wo", doc.DocumentContextBeforeInput())

	require.NoError(t, s.Handle(keyboard.Release, keyboard.Space()))
	require.NoError(t, s.HandleDrag(keyboard.Space(), from, keyboard.Point{X: 70}))
	assert.Equal(t, "hello", doc.DocumentContextBeforeInput())
}

func TestSessionActionTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.json")
	table := `{"version": 1, "overrides": [
		{"gesture": "tap", "action": "custom:smile", "effect": {"type": "insertText", "text": ":)"}},
		{"gesture": "longPress", "action": "backspace", "effect": {"type": "disabled"}}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(table), 0o600))

	cfg := testConfig()
	cfg.Keyboard.ActionTablePath = path
	s, doc := newTestSession(t, cfg, Options{})

	assert.True(t, s.CanHandle(keyboard.Tap, keyboard.Custom("smile")))
	assert.False(t, s.CanHandle(keyboard.LongPress, keyboard.Backspace()))
	assert.True(t, s.CanHandle(keyboard.RepeatPress, keyboard.Backspace()))

	tap(t, s, keyboard.Custom("smile"))
	assert.Equal(t, ":)", doc.Text())
}

func TestSessionMissingActionTableFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.Keyboard.ActionTablePath = filepath.Join(t.TempDir(), "missing.json")
	s, _ := newTestSession(t, cfg, Options{})

	assert.True(t, s.CanHandle(keyboard.LongPress, keyboard.Backspace()))
	assert.False(t, s.CanHandle(keyboard.Tap, keyboard.Custom("smile")))
}

func TestSessionReconfigure(t *testing.T) {
	s, doc := newTestSession(t, testConfig(), Options{})
	tap(t, s, keyboard.Emoji("😀"))

	cfg := s.Config()
	cfg.Keyboard.EndSentenceOnDoubleSpace = false
	cfg.Keyboard.Locales = []string{"de", "en"}
	cfg.Drag.Sensitivity = "fast"
	cfg.Emoji.Tracker = "recent"
	cfg.Autocomplete.Enabled = false
	require.NoError(t, s.Reconfigure(cfg))

	assert.Equal(t, "en", s.Locale(), "active locale is kept while configured")
	assert.Empty(t, s.FrequentEmojis())

	doc.SetText("", "")
	tap(t, s, keyboard.Character("h"), keyboard.Character("i"))
	assert.Empty(t, s.Suggestions())
	tap(t, s, keyboard.Space(), keyboard.Space())
	assert.Equal(t, "hi  ", doc.Text())

	require.NoError(t, s.HandleDrag(keyboard.Space(), keyboard.Point{}, keyboard.Point{X: -10}))
	assert.Equal(t, "hi", doc.DocumentContextBeforeInput())

	bad := s.Config()
	bad.Feedback.Volume = 3
	assert.ErrorIs(t, s.Reconfigure(bad), config.ErrInvalidConfig)
}

func TestSessionWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.SaveConfig(testConfig(), path))

	loader := config.NewLoader(path)
	defer loader.Close()
	cfg, err := loader.Load()
	require.NoError(t, err)

	s, _ := newTestSession(t, cfg, Options{})
	s.Watch(loader)
	require.NoError(t, loader.Watch())

	updated := testConfig()
	updated.Drag.Sensitivity = "slow"
	require.NoError(t, config.SaveConfig(updated, path))

	require.Eventually(t, func() bool {
		return s.Config().Drag.Sensitivity == "slow"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSessionLexicon(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Type = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "softkeys.db")

	s, doc := newTestSession(t, cfg, Options{})
	tap(t, s, keyboard.Character("w"), keyboard.Character("o"), keyboard.Character("r"))

	got := s.Suggestions()
	require.Len(t, got, 2)
	assert.True(t, got[0].IsUnknown)
	assert.Equal(t, "world", got[1].Text)

	require.NoError(t, s.ApplySuggestion(got[0]))
	assert.Equal(t, "wor ", doc.Text())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Words)
	assert.Equal(t, int64(1), stats.LearnedWords)
	require.NoError(t, s.Close())

	// Reopening does not seed the configured words twice.
	s, _ = newTestSession(t, cfg, Options{})
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Words)
}

func TestSessionClose(t *testing.T) {
	s, _ := newTestSession(t, testConfig(), Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Handle(keyboard.Tap, keyboard.Space()), ErrClosed)
	assert.ErrorIs(t, s.Type("a"), ErrClosed)
	assert.ErrorIs(t, s.EndDrag(), ErrClosed)
	assert.False(t, s.CanHandle(keyboard.Tap, keyboard.Space()))
	_, err := s.Stats()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionConcurrentUse(t *testing.T) {
	s, doc := newTestSession(t, testConfig(), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.Handle(keyboard.Tap, keyboard.Character("x"))
				s.Suggestions()
				s.KeyboardType()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, doc.Len())
}

func TestSessionMetrics(t *testing.T) {
	m := metrics.NewKeyboardMetrics(metrics.NewRegistry("softkeys", ""))
	s, _ := newTestSession(t, testConfig(), Options{Metrics: m})
	assert.Same(t, m, s.Metrics())
	assert.EqualValues(t, 1, m.ActiveSessions.Value())

	require.NoError(t, s.Type("h"))
	require.NoError(t, s.Type("e"))
	tap(t, s, keyboard.Emoji("🚀"), keyboard.Space())
	require.NoError(t, s.HandleDrag(keyboard.Space(), keyboard.Point{}, keyboard.Point{X: 1}))

	assert.EqualValues(t, 2, m.Gesture(keyboard.Tap, keyboard.ActionCharacter).Value())
	assert.EqualValues(t, 1, m.Gesture(keyboard.Tap, keyboard.ActionSpace).Value())
	assert.EqualValues(t, 1, m.EmojisTotal.Value())
	assert.EqualValues(t, 1, m.DragsTotal.Value())
	assert.EqualValues(t, 4, m.AutocompleteDuration.Count())

	require.NoError(t, s.Close())
	assert.Zero(t, m.ActiveSessions.Value())
	assert.ErrorIs(t, s.Handle(keyboard.Tap, keyboard.Space()), ErrClosed)
	assert.EqualValues(t, 1, m.RejectedTotal.Value())
}
