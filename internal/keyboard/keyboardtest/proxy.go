// Package keyboardtest provides recording fakes of the keyboard
// collaborators for tests.
package keyboardtest

import (
	"fmt"
	"unicode/utf8"
)

// Call is one recorded proxy mutation.
type Call struct {
	Method string
	Text   string
	Count  int
}

// String formats the call for assertion messages.
func (c Call) String() string {
	switch c.Method {
	case "InsertText":
		return fmt.Sprintf("InsertText(%q)", c.Text)
	default:
		return fmt.Sprintf("%s(%d)", c.Method, c.Count)
	}
}

// Proxy is an in-memory text document proxy that records every mutation.
// Counts are in runes.
type Proxy struct {
	Before string
	After  string
	Calls  []Call
}

// NewProxy returns a proxy with the cursor after before.
func NewProxy(before string) *Proxy {
	return &Proxy{Before: before}
}

// DocumentContextBeforeInput implements keyboard.TextDocumentProxy.
func (p *Proxy) DocumentContextBeforeInput() string { return p.Before }

// DocumentContextAfterInput implements keyboard.TextDocumentProxy.
func (p *Proxy) DocumentContextAfterInput() string { return p.After }

// InsertText implements keyboard.TextDocumentProxy.
func (p *Proxy) InsertText(text string) {
	p.Calls = append(p.Calls, Call{Method: "InsertText", Text: text})
	p.Before += text
}

// DeleteBackward implements keyboard.TextDocumentProxy.
func (p *Proxy) DeleteBackward(count int) {
	p.Calls = append(p.Calls, Call{Method: "DeleteBackward", Count: count})
	for i := 0; i < count && p.Before != ""; i++ {
		_, size := utf8.DecodeLastRuneInString(p.Before)
		p.Before = p.Before[:len(p.Before)-size]
	}
}

// AdjustTextPosition implements keyboard.TextDocumentProxy.
func (p *Proxy) AdjustTextPosition(offset int) {
	p.Calls = append(p.Calls, Call{Method: "AdjustTextPosition", Count: offset})
	for ; offset < 0 && p.Before != ""; offset++ {
		r, size := utf8.DecodeLastRuneInString(p.Before)
		p.Before = p.Before[:len(p.Before)-size]
		p.After = string(r) + p.After
	}
	for ; offset > 0 && p.After != ""; offset-- {
		r, size := utf8.DecodeRuneInString(p.After)
		p.After = p.After[size:]
		p.Before += string(r)
	}
}

// Text returns the whole document.
func (p *Proxy) Text() string { return p.Before + p.After }

// Count returns how many calls of method were recorded.
func (p *Proxy) Count(method string) int {
	n := 0
	for _, c := range p.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Mutations returns the number of recorded calls.
func (p *Proxy) Mutations() int { return len(p.Calls) }

// ResetCalls clears the call log and keeps the text.
func (p *Proxy) ResetCalls() { p.Calls = nil }
