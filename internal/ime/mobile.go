package ime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gopxl/beep"

	"softkeys/internal/action"
	"softkeys/internal/config"
	"softkeys/internal/dispatch"
	"softkeys/internal/feedback"
	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
)

// Mobile platform support via gomobile.
//
// iOS: the Go code is compiled to an xcframework with gomobile bind. The
// Swift UIInputViewController forwards gestures to MobileKeyboard and
// implements HostProxy on top of its textDocumentProxy.
//
// Android: the same facade is compiled to an AAR and driven from an
// InputMethodService, with HostProxy backed by InputConnection.

// HostProxy is the host text document. gomobile cannot bind interfaces
// from other packages, so this mirrors keyboard.TextDocumentProxy.
type HostProxy interface {
	DocumentContextBeforeInput() string
	DocumentContextAfterInput() string
	InsertText(text string)
	DeleteBackward(count int)
	AdjustTextPosition(offset int)
}

// HostFeedback plays feedback on the device. PlayClick receives
// interleaved 16-bit little-endian stereo PCM.
type HostFeedback interface {
	PlayClick(sound string, pcm []byte, sampleRate int)
	Vibrate(style string)
}

// HostSystem performs actions only the host can, such as dismissing the
// keyboard or switching to the next one.
type HostSystem interface {
	PerformSystemAction(name string)
}

type hostAudio struct{ host HostFeedback }

func (h hostAudio) PlayClip(sound feedback.AudioFeedback, clip beep.StreamSeeker, format beep.Format) {
	h.host.PlayClick(sound.String(), feedback.EncodePCM(clip, format), int(format.SampleRate))
}

type hostHaptic struct{ host HostFeedback }

func (h hostHaptic) TriggerHaptic(style feedback.HapticFeedback) {
	h.host.Vibrate(style.String())
}

// MobileKeyboard wraps Session for gomobile export. Gestures and actions
// are passed by name (see keyboard.ParseGesture and keyboard.ParseAction)
// and structured results come back as JSON.
type MobileKeyboard struct {
	session *Session
	loader  *config.Loader
	crash   *logging.CrashHandler
	logger  *logging.Logger
}

// NewMobileKeyboard loads the configuration at configPath (empty for the
// platform default) and starts a session. Any host argument may be nil.
func NewMobileKeyboard(configPath string, proxy HostProxy, fb HostFeedback, sys HostSystem) (*MobileKeyboard, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.Default()
	if lc, err := cfg.Logging.LoggerConfig(); err == nil {
		if l, err := logging.New(lc); err == nil {
			logger = l
		}
	}

	m, err := newMobileKeyboard(cfg, proxy, fb, sys, logger, config.GetDefaultPaths().CrashDir)
	if err != nil {
		logger.Close()
		return nil, err
	}
	m.loader = loader
	return m, nil
}

func newMobileKeyboard(cfg *config.Config, proxy HostProxy, fb HostFeedback, sys HostSystem, logger *logging.Logger, crashDir string) (*MobileKeyboard, error) {
	opts := Options{Logger: logger.WithComponent("ime")}
	if proxy != nil {
		opts.Proxy = proxy
	}
	if fb != nil {
		opts.Audio = hostAudio{fb}
		opts.Haptic = hostHaptic{fb}
	}
	if sys != nil {
		opts.System = dispatch.SystemFunc(func(a action.SystemAction) {
			sys.PerformSystemAction(a.String())
		})
	}

	session, err := NewSession(cfg, opts)
	if err != nil {
		return nil, err
	}
	crash := logging.NewCrashHandler(logging.CrashHandlerConfig{
		CrashDir: crashDir,
		Logger:   logger.WithComponent("crash").WithSession(session.ID()).Logger,
	})
	crash.SetSessionID(session.ID())
	return &MobileKeyboard{
		session: session,
		crash:   crash,
		logger:  logger,
	}, nil
}

// guard runs fn, turning a panic into a crash report and an error.
func (m *MobileKeyboard) guard(op string, fn func() error) (err error) {
	if m.crash.Recover(op, func() { err = fn() }) {
		return fmt.Errorf("ime: %s panicked", op)
	}
	return err
}

// WatchConfig reloads the configuration file whenever it changes.
func (m *MobileKeyboard) WatchConfig() error {
	if m.loader == nil {
		return fmt.Errorf("ime: no configuration file")
	}
	if err := m.loader.Watch(); err != nil {
		return err
	}
	m.session.Watch(m.loader)
	return nil
}

// Handle dispatches a gesture, e.g. Handle("tap", "character:a").
func (m *MobileKeyboard) Handle(gesture, act string) error {
	g, a, err := parseGestureAction(gesture, act)
	if err != nil {
		return err
	}
	return m.guard("handle", func() error { return m.session.Handle(g, a) })
}

// CanHandle reports whether the gesture on the action has an effect.
func (m *MobileKeyboard) CanHandle(gesture, act string) bool {
	g, a, err := parseGestureAction(gesture, act)
	if err != nil {
		return false
	}
	var ok bool
	m.guard("can_handle", func() error {
		ok = m.session.CanHandle(g, a)
		return nil
	})
	return ok
}

// TypeKey taps a character key, applying the keyboard's casing.
func (m *MobileKeyboard) TypeKey(text string) error {
	return m.guard("type_key", func() error { return m.session.Type(text) })
}

// HandleDrag forwards a drag update on the action key.
func (m *MobileKeyboard) HandleDrag(act string, fromX, fromY, toX, toY float64) error {
	a, err := keyboard.ParseAction(act)
	if err != nil {
		return err
	}
	return m.guard("handle_drag", func() error {
		return m.session.HandleDrag(a, keyboard.Point{X: fromX, Y: fromY}, keyboard.Point{X: toX, Y: toY})
	})
}

// EndDrag is called when the finger leaves the space bar.
func (m *MobileKeyboard) EndDrag() error {
	return m.session.EndDrag()
}

// ApplySuggestion applies the suggestion at index.
func (m *MobileKeyboard) ApplySuggestion(index int) error {
	return m.guard("apply_suggestion", func() error {
		suggestions := m.session.Suggestions()
		if index < 0 || index >= len(suggestions) {
			return fmt.Errorf("ime: no suggestion at index %d", index)
		}
		return m.session.ApplySuggestion(suggestions[index])
	})
}

// KeyboardType returns the active keyboard type, e.g. "alphabetic:uppercased".
func (m *MobileKeyboard) KeyboardType() string {
	return m.session.KeyboardType().String()
}

// Locale returns the active locale as a BCP 47 tag.
func (m *MobileKeyboard) Locale() string {
	return m.session.Locale()
}

// SuggestionsJSON returns the current suggestions as a JSON array.
func (m *MobileKeyboard) SuggestionsJSON() (string, error) {
	suggestions := m.session.Suggestions()
	if suggestions == nil {
		suggestions = []keyboard.Suggestion{}
	}
	return encodeJSON(suggestions)
}

// StateJSON returns a JSON snapshot of the session.
func (m *MobileKeyboard) StateJSON() (string, error) {
	return encodeJSON(m.session.State())
}

// FrequentEmojisJSON returns the tracked emojis as a JSON array.
func (m *MobileKeyboard) FrequentEmojisJSON() (string, error) {
	emojis := m.session.FrequentEmojis()
	if emojis == nil {
		emojis = []string{}
	}
	return encodeJSON(emojis)
}

// StatsJSON returns storage statistics as JSON.
func (m *MobileKeyboard) StatsJSON() (string, error) {
	stats, err := m.session.Stats()
	if err != nil {
		return "", err
	}
	return encodeJSON(stats)
}

// ClickPCM renders the named click ("input", "delete" or "system") so
// hosts can preload it into their audio engine.
func (m *MobileKeyboard) ClickPCM(sound string) ([]byte, error) {
	for _, s := range feedback.Sounds() {
		if s.String() != sound {
			continue
		}
		clip := m.session.Feedback().Clip(s)
		return feedback.EncodePCM(clip.Streamer(0, clip.Len()), clip.Format()), nil
	}
	return nil, fmt.Errorf("ime: unknown sound %q", sound)
}

// MetricsText returns the session metrics in Prometheus text format.
func (m *MobileKeyboard) MetricsText() (string, error) {
	var b strings.Builder
	if err := m.session.Metrics().Registry().WritePrometheus(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// CrashReportsJSON returns the stored crash reports as JSON.
func (m *MobileKeyboard) CrashReportsJSON() (string, error) {
	reports, err := m.crash.Reports()
	if err != nil {
		return "", err
	}
	if reports == nil {
		reports = []logging.CrashReport{}
	}
	return encodeJSON(reports)
}

// Close ends the session and stops watching the configuration.
func (m *MobileKeyboard) Close() error {
	if m.loader != nil {
		if err := m.loader.Close(); err != nil {
			m.logger.Warn("close config loader", slog.Any("error", err))
		}
	}
	err := m.session.Close()
	m.logger.Close()
	return err
}

func parseGestureAction(gesture, act string) (keyboard.Gesture, keyboard.Action, error) {
	g, err := keyboard.ParseGesture(gesture)
	if err != nil {
		return 0, keyboard.Action{}, err
	}
	a, err := keyboard.ParseAction(act)
	if err != nil {
		return 0, keyboard.Action{}, err
	}
	return g, a, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return string(data), nil
}
