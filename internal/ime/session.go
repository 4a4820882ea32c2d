package ime

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"softkeys/internal/action"
	"softkeys/internal/autocomplete"
	"softkeys/internal/behavior"
	"softkeys/internal/config"
	"softkeys/internal/dispatch"
	"softkeys/internal/drag"
	"softkeys/internal/emoji"
	"softkeys/internal/feedback"
	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
	"softkeys/internal/metrics"
	"softkeys/internal/store"
)

// ErrClosed is returned by calls on a closed Session.
var ErrClosed = errors.New("ime: session closed")

// Options are the host-provided collaborators of a Session. Every field
// is optional.
type Options struct {
	// Proxy is the host text document. Nil gets a fresh Document.
	Proxy keyboard.TextDocumentProxy

	Audio  feedback.AudioOutput
	Haptic feedback.HapticOutput
	System dispatch.SystemActionHandler

	// OnKeyboardTypeChanged is called, with the session lock held, after
	// every keyboard type change.
	OnKeyboardTypeChanged func(keyboard.Type)

	// Metrics receives the session metrics. Nil registers them in
	// metrics.Default.
	Metrics *metrics.KeyboardMetrics

	// Logger is the parent logger. Session records carry the session ID.
	Logger *logging.Logger
}

// Session is one keyboard session. It is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	closed bool
	id     string
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	ctx          *keyboard.Context
	handler      *dispatch.Handler
	policy       *behavior.Standard
	feedback     *feedback.Engine
	cursor       *drag.SpaceCursor
	tracker      emoji.Tracker
	autocomplete *autocomplete.Engine
	store        *store.Store
	metrics      *metrics.KeyboardMetrics
}

// NewSession builds a session from cfg. The configuration must be valid.
func NewSession(cfg *config.Config, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	base := opts.Logger
	if base == nil {
		base = logging.Default().WithComponent("ime")
	}
	id := uuid.NewString()
	logger := base.WithSession(id).Logger
	proxy := opts.Proxy
	if proxy == nil {
		proxy = NewDocument("")
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewKeyboardMetrics(nil)
	}

	s := &Session{
		id:      id,
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		ctx:     keyboard.NewContext(proxy),
		metrics: m,
	}
	if err := s.applyKeyboard(cfg.Keyboard); err != nil {
		return nil, err
	}
	s.ctx.Locale = s.ctx.Locales[0]
	if initial, err := keyboard.ParseType(cfg.Keyboard.InitialType); err == nil {
		s.ctx.KeyboardType = initial
	}

	st, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	s.store = st

	provider, err := s.newProvider()
	if err != nil {
		st.Close()
		return nil, err
	}

	s.policy = behavior.NewStandard(s.ctx, behaviorOptions(cfg.Keyboard))
	s.feedback = feedback.NewEngine(feedbackConfig(cfg.Feedback), opts.Audio, opts.Haptic, logger)
	s.cursor = drag.NewSpaceCursor(proxy, dragSensitivity(cfg.Drag))
	s.tracker = s.newTracker(cfg.Emoji)
	s.autocomplete = autocomplete.NewEngine(s.ctx, provider, autocompleteConfig(cfg.Autocomplete), logger)
	s.handler = s.newHandler()

	// Autocapitalize the initial document.
	s.handler.TryChangeKeyboardType(keyboard.Release, keyboard.NoAction())

	m.SessionsTotal.Inc()
	m.ActiveSessions.Inc()

	logger.Info("session started",
		"locale", s.ctx.Locale.String(),
		"keyboard_type", s.ctx.KeyboardType.String(),
		"storage", cfg.Storage.Type)
	return s, nil
}

func openStore(sc config.StorageConfig) (*store.Store, error) {
	path := sc.Path
	if sc.Type == "memory" {
		path = store.Memory
	}
	st, err := store.OpenWithOptions(path, store.Options{
		BusyTimeout: time.Duration(sc.BusyTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newProvider serves the configured word list from memory, or from the
// lexicon after seeding it with the words it does not have yet.
func (s *Session) newProvider() (autocomplete.Provider, error) {
	words := s.cfg.Autocomplete.Words
	if s.cfg.Storage.Type == "memory" {
		return autocomplete.NewStaticProvider(words...), nil
	}
	if err := seedLexicon(s.store, autocomplete.LocaleKey(s.ctx.Locale), words); err != nil {
		return nil, err
	}
	return autocomplete.NewLexiconProvider(s.store), nil
}

func seedLexicon(st *store.Store, locale string, words []string) error {
	var missing []store.Word
	for _, w := range words {
		found, err := st.LookupWord(locale, w)
		if err != nil {
			return fmt.Errorf("seed lexicon: %w", err)
		}
		if found == nil {
			missing = append(missing, store.Word{Locale: locale, Text: w})
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if _, err := st.AddWords(missing); err != nil {
		return fmt.Errorf("seed lexicon: %w", err)
	}
	return nil
}

func (s *Session) newTracker(ec config.EmojiConfig) emoji.Tracker {
	switch ec.Tracker {
	case "recent":
		return emoji.NewMostRecent(ec.MaxCount)
	case "frequent":
		return emoji.NewFrequent(s.store, ec.MaxCount, s.logger)
	default:
		return nil
	}
}

// newResolver layers the action table over the standard tables. A table
// that cannot be loaded is logged and the standard tables are used.
func (s *Session) newResolver() action.Resolver {
	base := action.Standard()
	path := s.cfg.Keyboard.ActionTablePath
	if path == "" {
		return base
	}
	overrides, err := action.LoadOverrides(path, base)
	if err != nil {
		s.logger.Warn("action table not loaded", "path", path, "error", err)
		return base
	}
	s.logger.Debug("action table loaded", "path", path, "entries", overrides.Len())
	return overrides
}

func (s *Session) newHandler() *dispatch.Handler {
	cfg := dispatch.Config{
		Resolver:              s.newResolver(),
		Behavior:              s.policy,
		Feedback:              s.feedback,
		Drag:                  s.cursor,
		System:                s.opts.System,
		OnKeyboardTypeChanged: s.opts.OnKeyboardTypeChanged,
		OnAutocomplete:        s.metrics.TimeAutocomplete(s.autocomplete.Refresh),
		Observer:              s.metrics.Observer(),
		Logger:                s.logger,
	}
	if s.tracker != nil {
		cfg.Emojis = s.tracker
	}
	return dispatch.New(s.ctx, cfg)
}

func (s *Session) applyKeyboard(kc config.KeyboardConfig) error {
	locales, err := keyboard.ParseLocales(kc.Locales)
	if err != nil {
		return err
	}
	autocap, err := keyboard.ParseAutocapitalization(kc.Autocapitalization)
	if err != nil {
		return err
	}
	device, err := keyboard.ParseDevice(kc.Device)
	if err != nil {
		return err
	}

	// Keep the active locale when it is still configured.
	if !slices.Contains(locales, s.ctx.Locale) {
		s.ctx.Locale = locales[0]
	}
	s.ctx.Locales = locales
	s.ctx.Autocapitalization = autocap
	s.ctx.Device = device
	return nil
}

func behaviorOptions(kc config.KeyboardConfig) behavior.Options {
	return behavior.Options{
		EndSentenceOnDoubleSpace: kc.EndSentenceOnDoubleSpace,
		ReturnToAlphabetic:       kc.ReturnToAlphabetic,
	}
}

func feedbackConfig(fc config.FeedbackConfig) feedback.Config {
	return feedback.Config{
		AudioEnabled:  fc.Audio,
		HapticEnabled: fc.Haptic,
		Volume:        fc.Volume,
		SampleRate:    fc.SampleRate,
	}
}

func dragSensitivity(dc config.DragConfig) drag.Sensitivity {
	if dc.Sensitivity == "custom" {
		return drag.Sensitivity(dc.PointsPerCharacter)
	}
	sens, err := drag.ParseSensitivity(dc.Sensitivity)
	if err != nil {
		return drag.Medium
	}
	return sens
}

func autocompleteConfig(ac config.AutocompleteConfig) autocomplete.Config {
	return autocomplete.Config{
		Enabled:    ac.Enabled,
		Limit:      ac.MaxSuggestions,
		Timeout:    time.Duration(ac.TimeoutMs) * time.Millisecond,
		LearnWords: ac.LearnWords,
	}
}

// Handle dispatches gesture g on action a.
func (s *Session) Handle(g keyboard.Gesture, a keyboard.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.rejected()
	}
	s.handler.Handle(g, a)
	return nil
}

// Type taps a character key, upper-casing text for the active locale
// when the alphabetic keyboard is shifted or caps locked.
func (s *Session) Type(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.rejected()
	}
	s.handler.Handle(keyboard.Tap, keyboard.Character(applyCasing(text, s.ctx.KeyboardType, s.ctx.Locale)))
	return nil
}

func applyCasing(text string, t keyboard.Type, locale language.Tag) string {
	if !t.IsAlphabetic() || !t.Casing().IsUppercased() {
		return text
	}
	return cases.Upper(locale).String(text)
}

// CanHandle reports whether g on a has an effect.
func (s *Session) CanHandle(g keyboard.Gesture, a keyboard.Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.handler.CanHandle(g, a)
}

// HandleDrag forwards a drag update on a.
func (s *Session) HandleDrag(a keyboard.Action, from, to keyboard.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.rejected()
	}
	s.metrics.DragsTotal.Inc()
	s.handler.HandleDrag(a, from, to)
	return nil
}

// EndDrag forgets the current space bar drag. Handling a release on the
// space action does the same.
func (s *Session) EndDrag() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.rejected()
	}
	s.handler.EndDrag()
	return nil
}

// ApplySuggestion replaces the current word with sg.
func (s *Session) ApplySuggestion(sg keyboard.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.rejected()
	}
	s.autocomplete.Apply(sg)
	s.metrics.SuggestionsAppliedTotal.Inc()
	// The replacement may start a sentence or a word.
	s.handler.TryChangeKeyboardType(keyboard.Release, keyboard.NoAction())
	return nil
}

// Suggestions returns the current autocomplete suggestions.
func (s *Session) Suggestions() []keyboard.Suggestion {
	return s.autocomplete.Suggestions()
}

// AutocompleteState returns a copy of the autocomplete context.
func (s *Session) AutocompleteState() keyboard.AutocompleteContext {
	return s.autocomplete.State()
}

// KeyboardType returns the active keyboard type.
func (s *Session) KeyboardType() keyboard.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.KeyboardType
}

// Locale returns the active locale.
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.Locale.String()
}

// Proxy returns the text document the session edits.
func (s *Session) Proxy() keyboard.TextDocumentProxy {
	return s.ctx.Proxy
}

// State is a snapshot of a session for hosts and the CLI.
type State struct {
	SessionID    string                `json:"session_id"`
	KeyboardType string                `json:"keyboard_type"`
	Locale       string                `json:"locale"`
	Locales      []string              `json:"locales"`
	Device       string                `json:"device"`
	TextBefore   string                `json:"text_before"`
	TextAfter    string                `json:"text_after"`
	Suggestions  []keyboard.Suggestion `json:"suggestions"`
	IsLoading    bool                  `json:"is_loading"`
	LastError    string                `json:"last_error,omitempty"`
}

// ID returns the session ID. It is stamped on every log record.
func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	st := State{
		SessionID:    s.id,
		KeyboardType: s.ctx.KeyboardType.String(),
		Locale:       s.ctx.Locale.String(),
		Device:       s.ctx.Device.String(),
		TextBefore:   s.ctx.Proxy.DocumentContextBeforeInput(),
		TextAfter:    s.ctx.Proxy.DocumentContextAfterInput(),
	}
	for _, l := range s.ctx.Locales {
		st.Locales = append(st.Locales, l.String())
	}
	s.mu.Unlock()

	ac := s.autocomplete.State()
	st.Suggestions = ac.Suggestions
	st.IsLoading = ac.IsLoading
	if ac.LastError != nil {
		st.LastError = ac.LastError.Error()
	}
	return st
}

// FrequentEmojis returns the tracked emojis, most relevant first. It is
// empty when tracking is off.
func (s *Session) FrequentEmojis() []string {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker == nil {
		return nil
	}
	return tracker.Emojis()
}

// Feedback returns the feedback engine, for hosts that pre-render clips.
func (s *Session) Feedback() *feedback.Engine { return s.feedback }

// Config returns a copy of the active configuration.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Reconfigure applies cfg to the running session. Storage settings and
// the autocomplete word list take effect in the next session.
func (s *Session) Reconfigure(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.rejected()
	}

	if err := s.applyKeyboard(cfg.Keyboard); err != nil {
		return err
	}
	if cfg.Storage != s.cfg.Storage || !slices.Equal(cfg.Autocomplete.Words, s.cfg.Autocomplete.Words) {
		s.logger.Info("storage changes apply to the next session")
	}
	rebuildTracker := cfg.Emoji != s.cfg.Emoji
	s.cfg = cfg

	s.policy.SetOptions(behaviorOptions(cfg.Keyboard))
	s.feedback.Reconfigure(feedbackConfig(cfg.Feedback))
	s.cursor.SetSensitivity(dragSensitivity(cfg.Drag))
	s.autocomplete.Reconfigure(autocompleteConfig(cfg.Autocomplete))
	if rebuildTracker {
		s.tracker = s.newTracker(cfg.Emoji)
	}
	s.handler = s.newHandler()

	s.logger.Info("session reconfigured")
	return nil
}

// Watch applies every configuration l reloads.
func (s *Session) Watch(l *config.Loader) {
	l.OnChange(func(cfg *config.Config) {
		if err := s.Reconfigure(cfg); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Warn("reconfigure failed", "error", err)
		}
	})
}

// Stats returns storage statistics.
func (s *Session) Stats() (*store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, s.rejected()
	}
	return s.store.Stats()
}

// Store returns the session's store.
func (s *Session) Store() *store.Store { return s.store }

// Metrics returns the metrics the session reports to.
func (s *Session) Metrics() *metrics.KeyboardMetrics {
	return s.metrics
}

func (s *Session) rejected() error {
	s.metrics.RejectedTotal.Inc()
	return ErrClosed
}

// Close releases the store. Further calls fail with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.metrics.ActiveSessions.Dec()
	s.logger.Info("session closed")
	return s.store.Close()
}
