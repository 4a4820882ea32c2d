// Package keyboard defines the value types shared by every layer of the
// keyboard core: actions, gestures, keyboard types, the session context
// and the text document proxy the host exposes.
//
// # Model
//
// The host input layer resolves touches into a Gesture on an Action:
//
//	touch → (Gesture, Action) → dispatch.Handler → TextDocumentProxy
//	                                  ↓
//	                     Context.KeyboardType, feedback, emoji, autocomplete
//
// Action, Gesture and Type are immutable comparable values. Context is the
// only mutable state and is owned by the hosting session.
//
// # Text document proxy
//
// TextDocumentProxy is the sole writer of document text. Helpers such as
// IsCursorAtNewSentence and EndSentence only go through the interface and
// keep no cached copy of the document.
package keyboard
