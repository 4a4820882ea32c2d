package autocomplete

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"softkeys/internal/keyboard"
	"softkeys/internal/keyboard/keyboardtest"
	"softkeys/internal/logging"
	"softkeys/internal/store"
)

func newEngine(before string, p Provider) (*Engine, *keyboardtest.Proxy) {
	proxy := keyboardtest.NewProxy(before)
	e := NewEngine(keyboard.NewContext(proxy), p, DefaultConfig(), logging.Discard().Logger)
	return e, proxy
}

func texts(ss []keyboard.Suggestion) []string {
	var out []string
	for _, s := range ss {
		out = append(out, s.Text)
	}
	return out
}

func TestRefresh(t *testing.T) {
	p := NewStaticProvider("hello", "help", "helium", "world")

	tests := []struct {
		before string
		want   []string
	}{
		{"say hel", []string{"hel", "hello", "help"}},
		{"Hel", []string{"Hel", "Hello", "Help"}},
		{"HEL", []string{"HEL", "HELLO", "HELP"}},
		{"help", []string{"help"}},
		{"wor", []string{"wor", "world"}},
		{"hello ", nil},
		{"", nil},
	}
	for _, tt := range tests {
		e, _ := newEngine(tt.before, p)
		e.Refresh()
		assert.Equal(t, tt.want, texts(e.Suggestions()), "before %q", tt.before)
	}
}

func TestRefreshMarksUnknownWord(t *testing.T) {
	e, _ := newEngine("hel", NewStaticProvider("hello"))
	e.Refresh()

	got := e.Suggestions()
	require.Len(t, got, 2)
	assert.True(t, got[0].IsUnknown)
	assert.Equal(t, `"hel"`, got[0].Title)
	assert.False(t, got[1].IsUnknown)
	assert.Equal(t, "hello", got[1].Title)
}

type listProvider []string

func (l listProvider) Suggestions(_ context.Context, req Request) ([]keyboard.Suggestion, error) {
	var out []keyboard.Suggestion
	for _, w := range l {
		out = append(out, keyboard.Suggestion{Text: w})
	}
	return out, nil
}

func TestRefreshWithoutKnower(t *testing.T) {
	e, _ := newEngine("Cat", listProvider{"cat", "catalog", "Cat"})
	e.Refresh()
	// The typed word is among the candidates, so it is known, and the
	// two casings of it collapse into one.
	assert.Equal(t, []string{"Cat", "Catalog"}, texts(e.Suggestions()))
}

type failingProvider struct{}

func (failingProvider) Suggestions(context.Context, Request) ([]keyboard.Suggestion, error) {
	return nil, errors.New("lexicon offline")
}

func TestRefreshError(t *testing.T) {
	e, _ := newEngine("hel", failingProvider{})
	e.Refresh()

	st := e.State()
	assert.EqualError(t, st.LastError, "lexicon offline")
	assert.Empty(t, st.Suggestions)
	assert.False(t, st.IsLoading)
}

type slowProvider struct{}

func (slowProvider) Suggestions(ctx context.Context, _ Request) ([]keyboard.Suggestion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRefreshTimeout(t *testing.T) {
	proxy := keyboardtest.NewProxy("hel")
	cfg := DefaultConfig()
	cfg.Timeout = 5 * time.Millisecond
	e := NewEngine(keyboard.NewContext(proxy), slowProvider{}, cfg, logging.Discard().Logger)

	e.Refresh()
	assert.ErrorIs(t, e.State().LastError, context.DeadlineExceeded)
}

func TestDisabled(t *testing.T) {
	e, _ := newEngine("hel", NewStaticProvider("hello"))
	e.Refresh()
	require.NotEmpty(t, e.Suggestions())

	e.Reconfigure(Config{Enabled: false})
	assert.Empty(t, e.Suggestions())
	e.Refresh()
	assert.Empty(t, e.Suggestions())
}

func TestLimit(t *testing.T) {
	proxy := keyboardtest.NewProxy("a")
	e := NewEngine(keyboard.NewContext(proxy), NewStaticProvider("ab", "ac", "ad", "ae"),
		Config{Enabled: true, Limit: 2}, logging.Discard().Logger)
	e.Refresh()
	assert.Equal(t, []string{"a", "ab"}, texts(e.Suggestions()))
}

func TestApply(t *testing.T) {
	e, proxy := newEngine("say hel", NewStaticProvider("hello", "help"))
	proxy.After = "lo world"

	e.Apply(keyboard.Suggestion{Text: "help"})

	assert.Equal(t, "say help ", proxy.Before)
	assert.Equal(t, " world", proxy.After)
	assert.Equal(t, []keyboardtest.Call{
		{Method: "AdjustTextPosition", Count: 2},
		{Method: "DeleteBackward", Count: 5},
		{Method: "InsertText", Text: "help "},
	}, proxy.Calls)
	assert.Empty(t, e.Suggestions(), "cursor is between words after applying")
}

func TestApplyCountsGraphemes(t *testing.T) {
	e, proxy := newEngine("café", NewStaticProvider())
	e.Apply(keyboard.Suggestion{Text: "café"})
	assert.Equal(t, []keyboardtest.Call{
		{Method: "DeleteBackward", Count: 4},
		{Method: "InsertText", Text: "café "},
	}, proxy.Calls)
}

func TestApplyLearnsUnknownWord(t *testing.T) {
	p := NewStaticProvider("hello")
	e, _ := newEngine("gopher", p)
	e.Refresh()
	got := e.Suggestions()
	require.NotEmpty(t, got)
	require.True(t, got[0].IsUnknown)

	e.Apply(got[0])

	known, err := p.Knows(context.Background(), language.English, "gopher")
	require.NoError(t, err)
	assert.True(t, known)
}

func TestApplyNoLearning(t *testing.T) {
	p := NewStaticProvider()
	proxy := keyboardtest.NewProxy("gopher")
	cfg := DefaultConfig()
	cfg.LearnWords = false
	e := NewEngine(keyboard.NewContext(proxy), p, cfg, logging.Discard().Logger)

	e.Apply(keyboard.Suggestion{Text: "gopher", IsUnknown: true})
	known, _ := p.Knows(context.Background(), language.English, "gopher")
	assert.False(t, known)
}

func TestMatchCasing(t *testing.T) {
	en := language.English
	assert.Equal(t, "hello", matchCasing("he", "hello", en))
	assert.Equal(t, "Hello", matchCasing("He", "hello", en))
	assert.Equal(t, "HELLO", matchCasing("HE", "hello", en))
	assert.Equal(t, "Hello", matchCasing("H", "hello", en), "one capital is a title")
	assert.Equal(t, "McDonald", matchCasing("Mc", "mcDonald", en))
	assert.Equal(t, "İSTANBUL", matchCasing("IS", "istanbul", language.Turkish))
}

func TestLocaleKey(t *testing.T) {
	assert.Equal(t, "en", LocaleKey(language.MustParse("en-GB")))
	assert.Equal(t, "de", LocaleKey(language.German))
}

func TestLexiconProvider(t *testing.T) {
	s, err := store.Open(store.Memory)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.AddWords([]store.Word{
		{Locale: "en", Text: "hello", Frequency: 10},
		{Locale: "en", Text: "help", Frequency: 20},
		{Locale: "de", Text: "helfen", Frequency: 30},
	})
	require.NoError(t, err)

	p := NewLexiconProvider(s)
	ctx := context.Background()

	got, err := p.Suggestions(ctx, Request{Prefix: "hel", Locale: language.MustParse("en-US"), Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "hello"}, texts(got))

	known, err := p.Knows(ctx, language.English, "HELLO")
	require.NoError(t, err)
	assert.True(t, known)

	require.NoError(t, p.Learn(ctx, language.English, "gopher"))
	known, _ = p.Knows(ctx, language.English, "gopher")
	assert.True(t, known)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Suggestions(cancelled, Request{Prefix: "h", Locale: language.English, Limit: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineWithLexicon(t *testing.T) {
	s, err := store.Open(store.Memory)
	require.NoError(t, err)
	defer s.Close()
	s.AddWords([]store.Word{{Locale: "en", Text: "keyboard", Frequency: 5}})

	e, _ := newEngine("Key", NewLexiconProvider(s))
	e.Refresh()
	assert.Equal(t, []string{"Key", "Keyboard"}, texts(e.Suggestions()))
}
