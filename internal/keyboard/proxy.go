package keyboard

import (
	"strings"
	"unicode/utf8"
)

// TextDocumentProxy is the host's edited text as seen from the cursor.
// It is the only writer of document text.
type TextDocumentProxy interface {
	// DocumentContextBeforeInput returns the text before the cursor.
	DocumentContextBeforeInput() string

	// DocumentContextAfterInput returns the text after the cursor.
	DocumentContextAfterInput() string

	// InsertText inserts text at the cursor.
	InsertText(text string)

	// DeleteBackward deletes count characters before the cursor.
	DeleteBackward(count int)

	// AdjustTextPosition moves the cursor by offset characters.
	AdjustTextPosition(offset int)
}

// IsCursorAtNewSentence reports whether the next typed character starts a
// sentence: the document is empty, the cursor follows a line break, or
// the cursor follows a sentence delimiter and at least one space.
func IsCursorAtNewSentence(p TextDocumentProxy) bool {
	before := p.DocumentContextBeforeInput()
	if before == "" || strings.HasSuffix(before, "\n") {
		return true
	}
	trimmed := strings.TrimRight(before, " \t")
	if trimmed == before {
		return false
	}
	if trimmed == "" {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	return last == '\n' || IsSentenceDelimiter(last)
}

// IsCursorAtNewWord reports whether the next typed character starts a word.
func IsCursorAtNewWord(p TextDocumentProxy) bool {
	before := p.DocumentContextBeforeInput()
	if before == "" {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(before)
	return IsWordDelimiter(last)
}

// CurrentWordBeforeCursor returns the part of the current word that lies
// before the cursor.
func CurrentWordBeforeCursor(p TextDocumentProxy) string {
	before := p.DocumentContextBeforeInput()
	start := len(before)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(before[:start])
		if IsWordDelimiter(r) {
			break
		}
		start -= size
	}
	return before[start:]
}

// CurrentWordAfterCursor returns the part of the current word that lies
// after the cursor.
func CurrentWordAfterCursor(p TextDocumentProxy) string {
	after := p.DocumentContextAfterInput()
	end := 0
	for end < len(after) {
		r, size := utf8.DecodeRuneInString(after[end:])
		if IsWordDelimiter(r) {
			break
		}
		end += size
	}
	return after[:end]
}

// CurrentWord returns the word the cursor is in, or "" between words.
func CurrentWord(p TextDocumentProxy) string {
	return CurrentWordBeforeCursor(p) + CurrentWordAfterCursor(p)
}

// TrailingSpaces counts the spaces directly before the cursor.
func TrailingSpaces(p TextDocumentProxy) int {
	before := p.DocumentContextBeforeInput()
	return len(before) - len(strings.TrimRight(before, " "))
}

// CloseSentence removes the spaces before the cursor, one DeleteBackward
// call per space, and closes the sentence with ". ".
func CloseSentence(p TextDocumentProxy) {
	for n := TrailingSpaces(p); n > 0; n-- {
		p.DeleteBackward(1)
	}
	p.InsertText(". ")
}
