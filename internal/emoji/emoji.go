// Package emoji keeps the recent and frequent emoji lists the emoji
// keyboard shows first.
package emoji

import (
	"log/slog"
	"sync"
	"time"

	"softkeys/internal/logging"
	"softkeys/internal/store"
)

// DefaultMaxCount is the list length used when none is configured.
const DefaultMaxCount = 30

// Tracker records emojis as they are typed.
type Tracker interface {
	RegisterEmoji(emoji string)
	Emojis() []string
}

// MostRecent is an in-memory list of the last used emojis, newest first.
// An emoji typed again moves to the front.
type MostRecent struct {
	mu       sync.Mutex
	maxCount int
	emojis   []string
}

// NewMostRecent returns an empty list holding at most maxCount emojis.
func NewMostRecent(maxCount int) *MostRecent {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &MostRecent{maxCount: maxCount}
}

// RegisterEmoji moves emoji to the front of the list.
func (m *MostRecent) RegisterEmoji(emoji string) {
	if emoji == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]string, 0, len(m.emojis)+1)
	list = append(list, emoji)
	for _, e := range m.emojis {
		if e != emoji {
			list = append(list, e)
		}
	}
	if len(list) > m.maxCount {
		list = list[:m.maxCount]
	}
	m.emojis = list
}

// Emojis returns a copy of the list.
func (m *MostRecent) Emojis() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.emojis...)
}

// MaxCount returns the list capacity.
func (m *MostRecent) MaxCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxCount
}

// Reset clears the list.
func (m *MostRecent) Reset() {
	m.mu.Lock()
	m.emojis = nil
	m.mu.Unlock()
}

// UsageStore persists emoji usage counts.
type UsageStore interface {
	RecordEmoji(emoji string, at time.Time) error
	TopEmojis(limit int) ([]store.EmojiUsage, error)
	ResetEmojis() error
}

// Frequent ranks emojis by how often they were used, breaking ties by
// recency. Counts live in a UsageStore. Store errors are logged and never
// returned, so a failing database only costs the ranking.
type Frequent struct {
	store    UsageStore
	maxCount int
	now      func() time.Time
	logger   *slog.Logger
}

// NewFrequent returns a tracker backed by s.
func NewFrequent(s UsageStore, maxCount int, logger *slog.Logger) *Frequent {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if logger == nil {
		logger = logging.Default().WithComponent("emoji").Logger
	}
	return &Frequent{store: s, maxCount: maxCount, now: time.Now, logger: logger}
}

// RegisterEmoji counts one use of emoji.
func (f *Frequent) RegisterEmoji(emoji string) {
	if emoji == "" {
		return
	}
	if err := f.store.RecordEmoji(emoji, f.now()); err != nil {
		f.logger.Warn("record emoji failed", "error", err)
	}
}

// Emojis returns the most frequent emojis, at most MaxCount.
func (f *Frequent) Emojis() []string {
	top, err := f.store.TopEmojis(f.maxCount)
	if err != nil {
		f.logger.Warn("load frequent emojis failed", "error", err)
		return nil
	}
	out := make([]string, 0, len(top))
	for _, u := range top {
		out = append(out, u.Emoji)
	}
	return out
}

// Reset forgets all usage.
func (f *Frequent) Reset() error {
	return f.store.ResetEmojis()
}
