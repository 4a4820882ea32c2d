package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"softkeys/internal/keyboard"
	"softkeys/internal/keyboard/keyboardtest"
)

func newPolicy(before string, opts Options) (*Standard, *keyboard.Context) {
	ctx := keyboard.NewContext(keyboardtest.NewProxy(before))
	return NewStandard(ctx, opts), ctx
}

func TestShouldEndSentence(t *testing.T) {
	cases := []struct {
		name   string
		before string
		g      keyboard.Gesture
		a      keyboard.Action
		want   bool
	}{
		{"word and two spaces", "foo  ", keyboard.Tap, keyboard.Space(), true},
		{"unicode word", "café  ", keyboard.Tap, keyboard.Space(), true},
		{"single space", "foo ", keyboard.Tap, keyboard.Space(), false},
		{"three spaces", "foo   ", keyboard.Tap, keyboard.Space(), false},
		{"after period", "foo.  ", keyboard.Tap, keyboard.Space(), false},
		{"only spaces", "  ", keyboard.Tap, keyboard.Space(), false},
		{"empty", "", keyboard.Tap, keyboard.Space(), false},
		{"character tap", "foo  ", keyboard.Tap, keyboard.Character("a"), false},
		{"long press space", "foo  ", keyboard.LongPress, keyboard.Space(), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newPolicy(tc.before, DefaultOptions())
			assert.Equal(t, tc.want, p.ShouldEndSentence(tc.g, tc.a))
		})
	}
}

func TestShouldEndSentenceDisabled(t *testing.T) {
	p, _ := newPolicy("foo  ", Options{})
	assert.False(t, p.ShouldEndSentence(keyboard.Tap, keyboard.Space()))

	p.SetOptions(DefaultOptions())
	assert.True(t, p.ShouldEndSentence(keyboard.Tap, keyboard.Space()))
}

func TestSentenceClosingAction(t *testing.T) {
	p, _ := newPolicy("", DefaultOptions())
	assert.Equal(t, keyboard.EndSentence(), p.SentenceClosingAction())
}

func TestPreferredKeyboardTypeAlphabetic(t *testing.T) {
	lower := keyboard.Alphabetic(keyboard.Lowercased)
	upper := keyboard.Alphabetic(keyboard.Uppercased)

	cases := []struct {
		name    string
		before  string
		current keyboard.Type
		autocap keyboard.Autocapitalization
		a       keyboard.Action
		want    keyboard.Type
	}{
		{"shift reverts after character", "H", upper, keyboard.AutocapitalizeSentences, keyboard.Character("H"), lower},
		{"sentence start", "Hi. ", lower, keyboard.AutocapitalizeSentences, keyboard.Space(), upper},
		{"empty document", "", lower, keyboard.AutocapitalizeSentences, keyboard.Backspace(), upper},
		{"after newline", "Hi\n", lower, keyboard.AutocapitalizeSentences, keyboard.Return(), upper},
		{"mid sentence", "Hi there ", lower, keyboard.AutocapitalizeSentences, keyboard.Space(), lower},
		{"words mode", "hi there ", lower, keyboard.AutocapitalizeWords, keyboard.Space(), upper},
		{"words mode inside word", "hi th", upper, keyboard.AutocapitalizeWords, keyboard.Character("h"), lower},
		{"all characters", "HI", lower, keyboard.AutocapitalizeAllCharacters, keyboard.Character("I"), upper},
		{"none", "", upper, keyboard.AutocapitalizeNone, keyboard.Character("a"), lower},
		{"caps lock sticks", "HI. ", keyboard.Alphabetic(keyboard.CapsLocked), keyboard.AutocapitalizeNone, keyboard.Character("I"), keyboard.Alphabetic(keyboard.CapsLocked)},
		{"shift keeps current", "", upper, keyboard.AutocapitalizeNone, keyboard.Shift(keyboard.Lowercased), upper},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, ctx := newPolicy(tc.before, DefaultOptions())
			ctx.KeyboardType = tc.current
			ctx.Autocapitalization = tc.autocap
			assert.Equal(t, tc.want, p.PreferredKeyboardType(keyboard.Tap, tc.a))
		})
	}
}

func TestPreferredKeyboardTypeNumeric(t *testing.T) {
	p, ctx := newPolicy("1 ", DefaultOptions())
	ctx.KeyboardType = keyboard.Numeric()

	assert.Equal(t, keyboard.Numeric(), p.PreferredKeyboardType(keyboard.Tap, keyboard.Character("1")))
	assert.Equal(t, keyboard.Alphabetic(keyboard.Lowercased), p.PreferredKeyboardType(keyboard.Tap, keyboard.Space()))
	assert.Equal(t, keyboard.Numeric(), p.PreferredKeyboardType(keyboard.LongPress, keyboard.Space()))

	ctx.KeyboardType = keyboard.Symbolic()
	ctx.Proxy = keyboardtest.NewProxy("1.\n")
	assert.Equal(t, keyboard.Alphabetic(keyboard.Uppercased), p.PreferredKeyboardType(keyboard.Tap, keyboard.Return()))

	p.SetOptions(Options{})
	assert.Equal(t, keyboard.Symbolic(), p.PreferredKeyboardType(keyboard.Tap, keyboard.Space()))
}

func TestPreferredKeyboardTypeOtherTypes(t *testing.T) {
	p, ctx := newPolicy("", DefaultOptions())
	for _, kt := range []keyboard.Type{keyboard.Emojis(), keyboard.Email(), keyboard.CustomType("hex")} {
		ctx.KeyboardType = kt
		assert.Equal(t, kt, p.PreferredKeyboardType(keyboard.Tap, keyboard.Space()), kt.String())
	}
}

func TestExplicitKeyboardSwitchKeepsType(t *testing.T) {
	p, ctx := newPolicy("", DefaultOptions())
	ctx.KeyboardType = keyboard.Numeric()
	assert.Equal(t, keyboard.Numeric(), p.PreferredKeyboardType(keyboard.Tap, keyboard.SwitchKeyboard(keyboard.Numeric())))
}
