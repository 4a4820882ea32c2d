package keyboard

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	// Text is inserted when the suggestion is applied.
	Text string `json:"text"`

	// Title is what the suggestion bar shows. Defaults to Text.
	Title string `json:"title"`

	// IsAutocorrect marks the candidate applied automatically on space.
	IsAutocorrect bool `json:"is_autocorrect,omitempty"`

	// IsUnknown marks the typed word when the lexicon does not know it.
	IsUnknown bool `json:"is_unknown,omitempty"`
}

// AutocompleteContext holds the current suggestions. The dispatcher never
// writes it; the autocomplete engine does when asked to refresh.
type AutocompleteContext struct {
	Suggestions []Suggestion
	IsLoading   bool
	LastError   error
}

// Reset clears suggestions and state flags.
func (c *AutocompleteContext) Reset() {
	c.Suggestions = nil
	c.IsLoading = false
	c.LastError = nil
}
