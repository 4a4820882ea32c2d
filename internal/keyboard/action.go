package keyboard

import (
	"fmt"
	"log/slog"
	"strings"
)

// ActionKind identifies the variant of an action.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionCharacter
	ActionCharacterMargin
	ActionSpace
	ActionBackspace
	ActionNewLine
	ActionReturn
	ActionTab
	ActionShift
	ActionEmoji
	ActionKeyboardType
	ActionMoveCursorBackward
	ActionMoveCursorForward
	ActionDismissKeyboard
	ActionNextKeyboard
	ActionNextLocale
	ActionDictation
	ActionSettings
	ActionCustom
	ActionEndSentence

	actionKindCount
)

var actionKindNames = [actionKindCount]string{
	ActionNone:               "none",
	ActionCharacter:          "character",
	ActionCharacterMargin:    "characterMargin",
	ActionSpace:              "space",
	ActionBackspace:          "backspace",
	ActionNewLine:            "newLine",
	ActionReturn:             "return",
	ActionTab:                "tab",
	ActionShift:              "shift",
	ActionEmoji:              "emoji",
	ActionKeyboardType:       "keyboardType",
	ActionMoveCursorBackward: "moveCursorBackward",
	ActionMoveCursorForward:  "moveCursorForward",
	ActionDismissKeyboard:    "dismissKeyboard",
	ActionNextKeyboard:       "nextKeyboard",
	ActionNextLocale:         "nextLocale",
	ActionDictation:          "dictation",
	ActionSettings:           "settings",
	ActionCustom:             "custom",
	ActionEndSentence:        "endSentence",
}

// ActionKinds lists every action kind in declaration order.
func ActionKinds() []ActionKind {
	kinds := make([]ActionKind, 0, actionKindCount)
	for k := ActionKind(0); k < actionKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the kind name.
func (k ActionKind) String() string {
	if k < actionKindCount {
		return actionKindNames[k]
	}
	return "unknown"
}

// Action is one logical key. Actions are immutable and compare by value.
type Action struct {
	kind         ActionKind
	text         string
	casing       Casing
	keyboardType Type
}

// NoAction returns the placeholder action.
func NoAction() Action { return Action{kind: ActionNone} }

// Character returns an action that types the grapheme s.
func Character(s string) Action { return Action{kind: ActionCharacter, text: s} }

// CharacterMargin returns the dead area next to the character key s.
func CharacterMargin(s string) Action { return Action{kind: ActionCharacterMargin, text: s} }

// Space returns the space bar action.
func Space() Action { return Action{kind: ActionSpace} }

// Backspace returns the backspace action.
func Backspace() Action { return Action{kind: ActionBackspace} }

// NewLine returns the new line action.
func NewLine() Action { return Action{kind: ActionNewLine} }

// Return returns the primary return key action.
func Return() Action { return Action{kind: ActionReturn} }

// Tab returns the tab action.
func Tab() Action { return Action{kind: ActionTab} }

// Shift returns a shift key showing the current casing c.
func Shift(c Casing) Action { return Action{kind: ActionShift, casing: c} }

// Emoji returns an action that types the emoji e.
func Emoji(e string) Action { return Action{kind: ActionEmoji, text: e} }

// SwitchKeyboard returns an action that switches to keyboard type t.
func SwitchKeyboard(t Type) Action { return Action{kind: ActionKeyboardType, keyboardType: t} }

// MoveCursorBackward returns the cursor-left action.
func MoveCursorBackward() Action { return Action{kind: ActionMoveCursorBackward} }

// MoveCursorForward returns the cursor-right action.
func MoveCursorForward() Action { return Action{kind: ActionMoveCursorForward} }

// DismissKeyboard returns the dismiss action.
func DismissKeyboard() Action { return Action{kind: ActionDismissKeyboard} }

// NextKeyboard returns the globe key action.
func NextKeyboard() Action { return Action{kind: ActionNextKeyboard} }

// NextLocale returns the locale switch action.
func NextLocale() Action { return Action{kind: ActionNextLocale} }

// Dictation returns the dictation key action.
func Dictation() Action { return Action{kind: ActionDictation} }

// Settings returns the settings key action.
func Settings() Action { return Action{kind: ActionSettings} }

// Custom returns a host-defined action.
func Custom(name string) Action { return Action{kind: ActionCustom, text: name} }

// EndSentence returns the synthesized sentence-closing action.
func EndSentence() Action { return Action{kind: ActionEndSentence} }

// Kind returns the variant.
func (a Action) Kind() ActionKind { return a.kind }

// Text returns the grapheme of character and emoji actions, or the name
// of a custom action.
func (a Action) Text() string { return a.text }

// Casing returns the casing shown by a shift key.
func (a Action) Casing() Casing { return a.casing }

// KeyboardType returns the target of a keyboard type action.
func (a Action) KeyboardType() Type { return a.keyboardType }

// IsShift reports whether a is a shift key.
func (a Action) IsShift() bool { return a.kind == ActionShift }

// IsEmoji reports whether a is an emoji key.
func (a Action) IsEmoji() bool { return a.kind == ActionEmoji }

// IsInput reports whether a types text into the document.
func (a Action) IsInput() bool {
	switch a.kind {
	case ActionCharacter, ActionCharacterMargin, ActionSpace, ActionNewLine,
		ActionReturn, ActionTab, ActionEmoji:
		return true
	default:
		return false
	}
}

// IsSystem reports whether a is a key that changes keyboard state rather
// than document text.
func (a Action) IsSystem() bool {
	switch a.kind {
	case ActionShift, ActionKeyboardType, ActionMoveCursorBackward,
		ActionMoveCursorForward, ActionDismissKeyboard, ActionNextKeyboard,
		ActionNextLocale, ActionDictation, ActionSettings, ActionCustom:
		return true
	default:
		return false
	}
}

// String formats the action in the form accepted by ParseAction.
func (a Action) String() string {
	switch a.kind {
	case ActionCharacter, ActionCharacterMargin, ActionEmoji, ActionCustom:
		return a.kind.String() + ":" + a.text
	case ActionShift:
		return "shift:" + a.casing.String()
	case ActionKeyboardType:
		return "keyboardType:" + a.keyboardType.String()
	default:
		return a.kind.String()
	}
}

// LogValue hides typed text so actions can be logged safely.
func (a Action) LogValue() slog.Value {
	switch a.kind {
	case ActionCharacter, ActionCharacterMargin, ActionEmoji:
		return slog.StringValue(a.kind.String())
	default:
		return slog.StringValue(a.String())
	}
}

// ParseAction parses the textual form produced by Action.String. Kind
// names are matched case-insensitively; payloads are kept verbatim.
func ParseAction(s string) (Action, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	needArg := func() error {
		if !hasArg || arg == "" {
			return fmt.Errorf("action %q requires an argument", name)
		}
		return nil
	}

	switch strings.ToLower(name) {
	case "none":
		return NoAction(), nil
	case "character", "char":
		if err := needArg(); err != nil {
			return Action{}, err
		}
		return Character(arg), nil
	case "charactermargin":
		if err := needArg(); err != nil {
			return Action{}, err
		}
		return CharacterMargin(arg), nil
	case "space":
		return Space(), nil
	case "backspace":
		return Backspace(), nil
	case "newline":
		return NewLine(), nil
	case "return", "primary":
		return Return(), nil
	case "tab":
		return Tab(), nil
	case "shift":
		if !hasArg {
			return Shift(Lowercased), nil
		}
		c, err := ParseCasing(arg)
		if err != nil {
			return Action{}, err
		}
		return Shift(c), nil
	case "emoji":
		if err := needArg(); err != nil {
			return Action{}, err
		}
		return Emoji(arg), nil
	case "keyboardtype":
		if err := needArg(); err != nil {
			return Action{}, err
		}
		t, err := ParseType(arg)
		if err != nil {
			return Action{}, err
		}
		return SwitchKeyboard(t), nil
	case "movecursorbackward":
		return MoveCursorBackward(), nil
	case "movecursorforward":
		return MoveCursorForward(), nil
	case "dismisskeyboard":
		return DismissKeyboard(), nil
	case "nextkeyboard":
		return NextKeyboard(), nil
	case "nextlocale":
		return NextLocale(), nil
	case "dictation":
		return Dictation(), nil
	case "settings":
		return Settings(), nil
	case "custom":
		if err := needArg(); err != nil {
			return Action{}, err
		}
		return Custom(arg), nil
	case "endsentence":
		return EndSentence(), nil
	default:
		return Action{}, fmt.Errorf("unknown action: %q", s)
	}
}
