package ime

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Document is an in-memory text document proxy. Counts passed to
// DeleteBackward and AdjustTextPosition are grapheme clusters, so a flag
// or a skin-toned emoji is deleted with one backspace.
//
// Document is not safe for concurrent use; a Session serializes access.
type Document struct {
	before string
	after  string
}

// NewDocument returns a document holding text with the cursor at the end.
func NewDocument(text string) *Document {
	return &Document{before: text}
}

// DocumentContextBeforeInput returns the text before the cursor.
func (d *Document) DocumentContextBeforeInput() string { return d.before }

// DocumentContextAfterInput returns the text after the cursor.
func (d *Document) DocumentContextAfterInput() string { return d.after }

// InsertText inserts text at the cursor.
func (d *Document) InsertText(text string) {
	d.before += text
}

// DeleteBackward deletes count grapheme clusters before the cursor.
func (d *Document) DeleteBackward(count int) {
	if count <= 0 || d.before == "" {
		return
	}
	clusters := graphemes(d.before)
	if count > len(clusters) {
		count = len(clusters)
	}
	d.before = strings.Join(clusters[:len(clusters)-count], "")
}

// AdjustTextPosition moves the cursor by offset grapheme clusters,
// stopping at either end of the document.
func (d *Document) AdjustTextPosition(offset int) {
	switch {
	case offset < 0:
		clusters := graphemes(d.before)
		n := min(-offset, len(clusters))
		split := len(clusters) - n
		d.after = strings.Join(clusters[split:], "") + d.after
		d.before = strings.Join(clusters[:split], "")
	case offset > 0:
		clusters := graphemes(d.after)
		n := min(offset, len(clusters))
		d.before += strings.Join(clusters[:n], "")
		d.after = strings.Join(clusters[n:], "")
	}
}

// Text returns the whole document.
func (d *Document) Text() string { return d.before + d.after }

// Cursor returns the cursor position in grapheme clusters.
func (d *Document) Cursor() int {
	return uniseg.GraphemeClusterCount(d.before)
}

// Len returns the document length in grapheme clusters.
func (d *Document) Len() int {
	return d.Cursor() + uniseg.GraphemeClusterCount(d.after)
}

// SetText replaces the document, placing the cursor between before and
// after. Hosts call it when the focused field changes.
func (d *Document) SetText(before, after string) {
	d.before = before
	d.after = after
}

func graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
