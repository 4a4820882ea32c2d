package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// Options tunes the connection.
type Options struct {
	// BusyTimeout is how long a write waits on a locked database.
	BusyTimeout time.Duration
}

// Store is the SQLite store for emoji usage and the autocomplete lexicon.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, Options{BusyTimeout: 5 * time.Second})
}

// OpenWithOptions is Open with explicit connection options.
func OpenWithOptions(path string, opts Options) (*Store, error) {
	dsn := path
	if path == Memory {
		dsn += "?_foreign_keys=on"
	} else {
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn += "?_foreign_keys=on&_journal_mode=WAL"
	}
	if opts.BusyTimeout > 0 {
		dsn += fmt.Sprintf("&_busy_timeout=%d", opts.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == Memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// DB returns the underlying database for migration tooling.
func (s *Store) DB() *sql.DB { return s.db }

// =============================================================================
// Emoji usage
// =============================================================================

// RecordEmoji counts one use of emoji at the given time.
func (s *Store) RecordEmoji(emoji string, at time.Time) error {
	if emoji == "" {
		return errors.New("record emoji: empty emoji")
	}
	_, err := s.db.Exec(`
		INSERT INTO emoji_usage (emoji, use_count, last_used_ns) VALUES (?, 1, ?)
		ON CONFLICT(emoji) DO UPDATE SET
		    use_count = use_count + 1,
		    last_used_ns = MAX(last_used_ns, excluded.last_used_ns)`,
		emoji, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record emoji: %w", err)
	}
	return nil
}

// TopEmojis returns up to limit emojis, most used first. Ties go to the
// most recently used.
func (s *Store) TopEmojis(limit int) ([]EmojiUsage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT emoji, use_count, last_used_ns FROM emoji_usage
		ORDER BY use_count DESC, last_used_ns DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query emojis: %w", err)
	}
	defer rows.Close()

	var out []EmojiUsage
	for rows.Next() {
		var u EmojiUsage
		if err := rows.Scan(&u.Emoji, &u.Count, &u.LastUsedNs); err != nil {
			return nil, fmt.Errorf("scan emoji: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// EmojiUsageOf returns the usage of emoji, or nil if it was never used.
func (s *Store) EmojiUsageOf(emoji string) (*EmojiUsage, error) {
	u := &EmojiUsage{}
	err := s.db.QueryRow(
		"SELECT emoji, use_count, last_used_ns FROM emoji_usage WHERE emoji = ?", emoji,
	).Scan(&u.Emoji, &u.Count, &u.LastUsedNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get emoji: %w", err)
	}
	return u, nil
}

// ResetEmojis forgets all emoji usage.
func (s *Store) ResetEmojis() error {
	if _, err := s.db.Exec("DELETE FROM emoji_usage"); err != nil {
		return fmt.Errorf("reset emojis: %w", err)
	}
	return nil
}

// =============================================================================
// Lexicon
// =============================================================================

func normalize(word string) string { return strings.ToLower(word) }

// AddWords imports words into the lexicon. An existing word takes the
// imported frequency; words without one get frequency 1. It returns the
// number of words written.
func (s *Store) AddWords(words []Word) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO lexicon (locale, word, norm, frequency) VALUES (?, ?, ?, ?)
		ON CONFLICT(locale, word) DO UPDATE SET frequency = excluded.frequency`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		freq := w.Frequency
		if freq <= 0 {
			freq = 1
		}
		if _, err := stmt.Exec(w.Locale, text, normalize(text), freq); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert word %d: %w", n, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit words: %w", err)
	}
	return n, nil
}

// LearnWord adds word to the lexicon as learned, or bumps its frequency
// when present.
func (s *Store) LearnWord(locale, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return errors.New("learn word: empty word")
	}
	_, err := s.db.Exec(`
		INSERT INTO lexicon (locale, word, norm, frequency, learned) VALUES (?, ?, ?, 1, 1)
		ON CONFLICT(locale, word) DO UPDATE SET frequency = frequency + 1`,
		locale, word, normalize(word),
	)
	if err != nil {
		return fmt.Errorf("learn word: %w", err)
	}
	return nil
}

// ForgetWord removes word from the lexicon.
func (s *Store) ForgetWord(locale, word string) error {
	if _, err := s.db.Exec("DELETE FROM lexicon WHERE locale = ? AND word = ?", locale, word); err != nil {
		return fmt.Errorf("forget word: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// WordsWithPrefix returns up to limit words of locale starting with prefix,
// ignoring case. Higher frequencies come first.
func (s *Store) WordsWithPrefix(locale, prefix string, limit int) ([]Word, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT locale, word, frequency, learned FROM lexicon
		WHERE locale = ? AND norm LIKE ? ESCAPE '\'
		ORDER BY frequency DESC, word ASC
		LIMIT ?`,
		locale, escapeLike(normalize(prefix))+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.Locale, &w.Text, &w.Frequency, &w.Learned); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// LookupWord returns the entry matching word in locale ignoring case, or
// nil if there is none. An exact-case match wins over other casings.
func (s *Store) LookupWord(locale, word string) (*Word, error) {
	w := &Word{}
	err := s.db.QueryRow(`
		SELECT locale, word, frequency, learned FROM lexicon
		WHERE locale = ? AND norm = ?
		ORDER BY word = ? DESC, frequency DESC
		LIMIT 1`,
		locale, normalize(word), word,
	).Scan(&w.Locale, &w.Text, &w.Frequency, &w.Learned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup word: %w", err)
	}
	return w, nil
}

// WordCount returns the number of words in locale, or in all locales when
// locale is empty.
func (s *Store) WordCount(locale string) (int64, error) {
	var n int64
	var err error
	if locale == "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM lexicon").Scan(&n)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM lexicon WHERE locale = ?", locale).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

// Stats summarizes the store.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{}
	if err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(use_count), 0) FROM emoji_usage",
	).Scan(&st.Emojis, &st.EmojiUses); err != nil {
		return nil, fmt.Errorf("emoji stats: %w", err)
	}
	if err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(learned), 0) FROM lexicon",
	).Scan(&st.Words, &st.LearnedWords); err != nil {
		return nil, fmt.Errorf("lexicon stats: %w", err)
	}

	rows, err := s.db.Query("SELECT DISTINCT locale FROM lexicon ORDER BY locale")
	if err != nil {
		return nil, fmt.Errorf("query locales: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan locale: %w", err)
		}
		st.Locales = append(st.Locales, l)
	}
	return st, rows.Err()
}
