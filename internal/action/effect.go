// Package action resolves a gesture on a keyboard action into the
// concrete effect it has on the document and the keyboard.
//
// Resolution goes through a Resolver. Tables resolves with one Table per
// gesture kind, and Standard returns the built-in tables. Overrides layers
// explicit per-(gesture, action) effects, optionally loaded from a JSON
// action table, on top of any other resolver.
package action

import (
	"fmt"
	"strings"

	"softkeys/internal/keyboard"
)

// EffectKind identifies what an Effect does.
type EffectKind uint8

const (
	// EffectNoop is handled but changes nothing. Feedback still fires.
	EffectNoop EffectKind = iota
	EffectInsertText
	EffectDeleteBackward
	EffectSetKeyboardType
	EffectMoveCursor
	EffectEndSentence
	EffectNextLocale
	EffectSystem
)

// String returns the kind name used in action tables.
func (k EffectKind) String() string {
	switch k {
	case EffectNoop:
		return "noop"
	case EffectInsertText:
		return "insertText"
	case EffectDeleteBackward:
		return "deleteBackward"
	case EffectSetKeyboardType:
		return "setKeyboardType"
	case EffectMoveCursor:
		return "moveCursor"
	case EffectEndSentence:
		return "endSentence"
	case EffectNextLocale:
		return "nextLocale"
	case EffectSystem:
		return "system"
	default:
		return "unknown"
	}
}

// SystemAction is an effect the host performs outside the document.
type SystemAction uint8

const (
	SystemNone SystemAction = iota
	SystemDismissKeyboard
	SystemNextKeyboard
	SystemStartDictation
	SystemOpenSettings
)

// String returns the system action name used in action tables.
func (s SystemAction) String() string {
	switch s {
	case SystemDismissKeyboard:
		return "dismissKeyboard"
	case SystemNextKeyboard:
		return "nextKeyboard"
	case SystemStartDictation:
		return "startDictation"
	case SystemOpenSettings:
		return "openSettings"
	default:
		return "none"
	}
}

// ParseSystemAction parses a system action name.
func ParseSystemAction(s string) (SystemAction, error) {
	switch strings.ToLower(s) {
	case "dismisskeyboard":
		return SystemDismissKeyboard, nil
	case "nextkeyboard":
		return SystemNextKeyboard, nil
	case "startdictation":
		return SystemStartDictation, nil
	case "opensettings":
		return SystemOpenSettings, nil
	default:
		return SystemNone, fmt.Errorf("unknown system action: %q", s)
	}
}

// Effect is the concrete mutation a resolved gesture produces. Effects are
// comparable with ==.
type Effect struct {
	Kind         EffectKind
	Text         string
	Count        int
	Offset       int
	KeyboardType keyboard.Type
	System       SystemAction
}

// Noop returns an effect that changes nothing.
func Noop() Effect { return Effect{Kind: EffectNoop} }

// Insert returns an effect that inserts text at the cursor.
func Insert(text string) Effect { return Effect{Kind: EffectInsertText, Text: text} }

// Delete returns an effect that deletes count characters before the cursor.
func Delete(count int) Effect { return Effect{Kind: EffectDeleteBackward, Count: count} }

// SetType returns an effect that switches the keyboard type.
func SetType(t keyboard.Type) Effect { return Effect{Kind: EffectSetKeyboardType, KeyboardType: t} }

// Move returns an effect that moves the cursor by offset characters.
func Move(offset int) Effect { return Effect{Kind: EffectMoveCursor, Offset: offset} }

// CloseSentence returns an effect that ends the current sentence.
func CloseSentence() Effect { return Effect{Kind: EffectEndSentence} }

// CycleLocale returns an effect that selects the next context locale.
func CycleLocale() Effect { return Effect{Kind: EffectNextLocale} }

// Perform returns an effect that asks the host to perform s.
func Perform(s SystemAction) Effect { return Effect{Kind: EffectSystem, System: s} }

// String describes the effect without exposing inserted text.
func (e Effect) String() string {
	switch e.Kind {
	case EffectDeleteBackward:
		return fmt.Sprintf("deleteBackward(%d)", e.Count)
	case EffectSetKeyboardType:
		return "setKeyboardType(" + e.KeyboardType.String() + ")"
	case EffectMoveCursor:
		return fmt.Sprintf("moveCursor(%d)", e.Offset)
	case EffectSystem:
		return "system(" + e.System.String() + ")"
	default:
		return e.Kind.String()
	}
}
