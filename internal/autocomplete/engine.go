// Package autocomplete produces word suggestions for the word at the
// cursor and applies the one the user picks.
package autocomplete

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
)

// Config controls the engine.
type Config struct {
	Enabled bool

	// Limit caps the suggestions shown, including the typed word.
	Limit int

	// Timeout bounds one provider call.
	Timeout time.Duration

	// LearnWords adds unknown words the user applies to the provider.
	LearnWords bool
}

// DefaultConfig returns three suggestions with a 150ms budget.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Limit:      3,
		Timeout:    150 * time.Millisecond,
		LearnWords: true,
	}
}

// Engine keeps the AutocompleteContext of one keyboard session.
type Engine struct {
	mu       sync.Mutex
	kctx     *keyboard.Context
	provider Provider
	cfg      Config
	state    keyboard.AutocompleteContext
	logger   *slog.Logger
}

// NewEngine returns an engine completing the word at kctx's cursor.
func NewEngine(kctx *keyboard.Context, p Provider, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Default().WithComponent("autocomplete").Logger
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	return &Engine{kctx: kctx, provider: p, cfg: cfg, logger: logger}
}

// Reconfigure replaces the configuration. Suggestions are cleared when
// autocomplete is turned off.
func (e *Engine) Reconfigure(cfg Config) {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	if !cfg.Enabled {
		e.state.Reset()
	}
}

// State returns a copy of the autocomplete context.
func (e *Engine) State() keyboard.AutocompleteContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state
	st.Suggestions = append([]keyboard.Suggestion(nil), e.state.Suggestions...)
	return st
}

// Suggestions returns the current suggestions.
func (e *Engine) Suggestions() []keyboard.Suggestion {
	return e.State().Suggestions
}

// Refresh recomputes suggestions for the word before the cursor. It is
// the dispatcher's autocomplete callback.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.Enabled || e.provider == nil {
		e.state.Reset()
		return
	}
	word := keyboard.CurrentWordBeforeCursor(e.kctx.Proxy)
	if word == "" {
		e.state.Reset()
		return
	}

	e.state.IsLoading = true
	ctx, cancel := e.callContext()
	defer cancel()

	locale := e.kctx.Locale
	found, err := e.provider.Suggestions(ctx, Request{Prefix: word, Locale: locale, Limit: e.cfg.Limit})
	if err != nil {
		e.logger.Warn("suggestions failed", "error", err)
		e.state = keyboard.AutocompleteContext{LastError: err}
		return
	}

	known, err := e.knows(ctx, locale, word, found)
	if err != nil {
		e.logger.Debug("known word check failed", "error", err)
	}

	e.state = keyboard.AutocompleteContext{
		Suggestions: arrange(word, found, known, locale, e.cfg.Limit),
	}
}

func (e *Engine) callContext() (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(context.Background(), e.cfg.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (e *Engine) knows(ctx context.Context, locale language.Tag, word string, found []keyboard.Suggestion) (bool, error) {
	if k, ok := e.provider.(Knower); ok {
		return k.Knows(ctx, locale, word)
	}
	for _, s := range found {
		if strings.EqualFold(s.Text, word) {
			return true, nil
		}
	}
	return false, nil
}

// arrange applies the typed word's casing to the candidates, drops
// duplicates, and puts an unknown typed word first.
func arrange(word string, found []keyboard.Suggestion, known bool, locale language.Tag, limit int) []keyboard.Suggestion {
	out := make([]keyboard.Suggestion, 0, limit)
	seen := make(map[string]bool)
	if !known {
		out = append(out, keyboard.Suggestion{Text: word, Title: `"` + word + `"`, IsUnknown: true})
		seen[word] = true
	}
	for _, s := range found {
		if len(out) == limit {
			break
		}
		s.Text = matchCasing(word, s.Text, locale)
		if seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		s.Title = s.Text
		out = append(out, s)
	}
	return out
}

// matchCasing gives candidate the capitalization of typed: all caps when
// typed has more than one letter and all are uppercase, a capital first
// letter when typed starts with one.
func matchCasing(typed, candidate string, locale language.Tag) string {
	first, _ := utf8.DecodeRuneInString(typed)
	if !unicode.IsUpper(first) {
		return candidate
	}
	if isAllCaps(typed) {
		return cases.Upper(locale).String(candidate)
	}
	return cases.Title(locale, cases.NoLower).String(candidate)
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 1
}

// Apply replaces the word at the cursor with s followed by a space, then
// refreshes. An unknown word the user applies is learned when the
// provider supports it.
func (e *Engine) Apply(s keyboard.Suggestion) {
	e.mu.Lock()
	proxy := e.kctx.Proxy
	after := keyboard.CurrentWordAfterCursor(proxy)
	if n := uniseg.GraphemeClusterCount(after); n > 0 {
		proxy.AdjustTextPosition(n)
	}
	if n := uniseg.GraphemeClusterCount(keyboard.CurrentWordBeforeCursor(proxy)); n > 0 {
		proxy.DeleteBackward(n)
	}
	proxy.InsertText(s.Text + " ")

	if s.IsUnknown && e.cfg.LearnWords {
		if l, ok := e.provider.(Learner); ok {
			ctx, cancel := e.callContext()
			if err := l.Learn(ctx, e.kctx.Locale, s.Text); err != nil {
				e.logger.Warn("learn word failed", "error", err)
			}
			cancel()
		}
	}
	e.mu.Unlock()

	e.Refresh()
}
