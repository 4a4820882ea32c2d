package autocomplete

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"softkeys/internal/keyboard"
	"softkeys/internal/store"
)

// Request asks for completions of Prefix.
type Request struct {
	Prefix string
	Locale language.Tag
	Limit  int
}

// Provider returns completion candidates, best first.
type Provider interface {
	Suggestions(ctx context.Context, req Request) ([]keyboard.Suggestion, error)
}

// Knower is implemented by providers that can tell whether a word is in
// their vocabulary. Without it the engine checks the returned candidates.
type Knower interface {
	Knows(ctx context.Context, locale language.Tag, word string) (bool, error)
}

// Learner is implemented by providers that add words the user keeps.
type Learner interface {
	Learn(ctx context.Context, locale language.Tag, word string) error
}

// LocaleKey returns the lexicon key for tag: its base language.
func LocaleKey(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// StaticProvider completes from a fixed word list in list order. It
// ignores the locale.
type StaticProvider struct {
	mu    sync.RWMutex
	words []string
}

// NewStaticProvider returns a provider over words.
func NewStaticProvider(words ...string) *StaticProvider {
	return &StaticProvider{words: append([]string(nil), words...)}
}

// Suggestions returns the words starting with req.Prefix, ignoring case.
func (p *StaticProvider) Suggestions(ctx context.Context, req Request) ([]keyboard.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := strings.ToLower(req.Prefix)

	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []keyboard.Suggestion
	for _, w := range p.words {
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
		if strings.HasPrefix(strings.ToLower(w), prefix) {
			out = append(out, keyboard.Suggestion{Text: w, Title: w})
		}
	}
	return out, nil
}

// Knows reports whether word is in the list, ignoring case.
func (p *StaticProvider) Knows(ctx context.Context, _ language.Tag, word string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, w := range p.words {
		if strings.EqualFold(w, word) {
			return true, nil
		}
	}
	return false, nil
}

// Learn appends word to the list.
func (p *StaticProvider) Learn(_ context.Context, _ language.Tag, word string) error {
	p.mu.Lock()
	p.words = append(p.words, word)
	p.mu.Unlock()
	return nil
}

// Lexicon is the word storage behind LexiconProvider.
type Lexicon interface {
	WordsWithPrefix(locale, prefix string, limit int) ([]store.Word, error)
	LookupWord(locale, word string) (*store.Word, error)
	LearnWord(locale, word string) error
}

// LexiconProvider completes from a frequency-ranked lexicon.
type LexiconProvider struct {
	lexicon Lexicon
}

// NewLexiconProvider returns a provider reading from l.
func NewLexiconProvider(l Lexicon) *LexiconProvider {
	return &LexiconProvider{lexicon: l}
}

// Suggestions returns the most frequent words starting with req.Prefix.
func (p *LexiconProvider) Suggestions(ctx context.Context, req Request) ([]keyboard.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words, err := p.lexicon.WordsWithPrefix(LocaleKey(req.Locale), req.Prefix, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("lexicon suggestions: %w", err)
	}
	out := make([]keyboard.Suggestion, 0, len(words))
	for _, w := range words {
		out = append(out, keyboard.Suggestion{Text: w.Text, Title: w.Text})
	}
	return out, nil
}

// Knows reports whether the lexicon has word in any casing.
func (p *LexiconProvider) Knows(ctx context.Context, locale language.Tag, word string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	w, err := p.lexicon.LookupWord(LocaleKey(locale), word)
	if err != nil {
		return false, fmt.Errorf("lexicon lookup: %w", err)
	}
	return w != nil, nil
}

// Learn stores word as learned.
func (p *LexiconProvider) Learn(ctx context.Context, locale language.Tag, word string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.lexicon.LearnWord(LocaleKey(locale), word)
}
