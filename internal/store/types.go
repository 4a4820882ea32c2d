package store

import "time"

// EmojiUsage is the usage record of one emoji.
type EmojiUsage struct {
	Emoji      string
	Count      int64
	LastUsedNs int64
}

// LastUsed returns LastUsedNs as a time.
func (u EmojiUsage) LastUsed() time.Time { return time.Unix(0, u.LastUsedNs) }

// Word is a lexicon entry.
type Word struct {
	Locale    string
	Text      string
	Frequency int64

	// Learned is set for words added from typing rather than imported.
	Learned bool
}

// Stats summarizes the store contents.
type Stats struct {
	Emojis       int64    `json:"emojis"`
	EmojiUses    int64    `json:"emoji_uses"`
	Words        int64    `json:"words"`
	LearnedWords int64    `json:"learned_words"`
	Locales      []string `json:"locales"`
}
