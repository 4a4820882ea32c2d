// Package behavior answers the dispatcher's policy questions: whether a
// gesture should close the current sentence, and which keyboard type
// should be active after it.
package behavior

import (
	"strings"
	"unicode/utf8"

	"softkeys/internal/keyboard"
)

// Policy is consulted by the dispatcher after an effect has been applied.
// Implementations read the keyboard context and never mutate it.
type Policy interface {
	ShouldEndSentence(g keyboard.Gesture, a keyboard.Action) bool
	SentenceClosingAction() keyboard.Action
	PreferredKeyboardType(g keyboard.Gesture, a keyboard.Action) keyboard.Type
}

// Options tune the standard policy.
type Options struct {
	// EndSentenceOnDoubleSpace closes a sentence when space is tapped twice
	// after a word.
	EndSentenceOnDoubleSpace bool

	// ReturnToAlphabetic switches numeric and symbolic keyboards back to
	// alphabetic after space or return.
	ReturnToAlphabetic bool
}

// DefaultOptions enables every heuristic.
func DefaultOptions() Options {
	return Options{
		EndSentenceOnDoubleSpace: true,
		ReturnToAlphabetic:       true,
	}
}

// Standard is the default policy.
type Standard struct {
	ctx  *keyboard.Context
	opts Options
}

// NewStandard returns the standard policy for ctx.
func NewStandard(ctx *keyboard.Context, opts Options) *Standard {
	return &Standard{ctx: ctx, opts: opts}
}

// Options returns the active options.
func (s *Standard) Options() Options { return s.opts }

// SetOptions replaces the active options.
func (s *Standard) SetOptions(opts Options) { s.opts = opts }

// ShouldEndSentence reports whether a tap on space left the cursor after a
// word followed by exactly two spaces.
func (s *Standard) ShouldEndSentence(g keyboard.Gesture, a keyboard.Action) bool {
	if !s.opts.EndSentenceOnDoubleSpace {
		return false
	}
	if g != keyboard.Tap || a.Kind() != keyboard.ActionSpace {
		return false
	}
	return endsWithDoubleSpace(s.ctx.Proxy.DocumentContextBeforeInput())
}

// SentenceClosingAction returns the action applied when a sentence ends.
func (s *Standard) SentenceClosingAction() keyboard.Action {
	return keyboard.EndSentence()
}

// PreferredKeyboardType returns the keyboard type that should be active
// after g on a.
func (s *Standard) PreferredKeyboardType(g keyboard.Gesture, a keyboard.Action) keyboard.Type {
	current := s.ctx.KeyboardType

	switch a.Kind() {
	case keyboard.ActionShift, keyboard.ActionKeyboardType:
		return current
	}

	switch {
	case current.IsAlphabetic():
		if current.Casing() == keyboard.CapsLocked {
			return current
		}
		return keyboard.Alphabetic(s.autocapitalizedCasing())
	case current.IsNumericOrSymbolic():
		if s.opts.ReturnToAlphabetic && g == keyboard.Tap && returnsToAlphabetic(a) {
			return keyboard.Alphabetic(s.autocapitalizedCasing())
		}
	}
	return current
}

func (s *Standard) autocapitalizedCasing() keyboard.Casing {
	var upper bool
	switch s.ctx.Autocapitalization {
	case keyboard.AutocapitalizeSentences:
		upper = keyboard.IsCursorAtNewSentence(s.ctx.Proxy)
	case keyboard.AutocapitalizeWords:
		upper = keyboard.IsCursorAtNewWord(s.ctx.Proxy)
	case keyboard.AutocapitalizeAllCharacters:
		upper = true
	}
	if upper {
		return keyboard.Uppercased
	}
	return keyboard.Lowercased
}

func returnsToAlphabetic(a keyboard.Action) bool {
	switch a.Kind() {
	case keyboard.ActionSpace, keyboard.ActionReturn, keyboard.ActionNewLine:
		return true
	}
	return false
}

// endsWithDoubleSpace matches a non-delimiter followed by exactly two
// spaces at the end of text.
func endsWithDoubleSpace(text string) bool {
	if !strings.HasSuffix(text, "  ") {
		return false
	}
	rest := text[:len(text)-2]
	if rest == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(rest)
	return !keyboard.IsWordDelimiter(last)
}
