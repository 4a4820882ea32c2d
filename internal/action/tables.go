package action

import "softkeys/internal/keyboard"

// StandardTap is the built-in tap table.
func StandardTap(a keyboard.Action) (Effect, bool) {
	switch a.Kind() {
	case keyboard.ActionCharacter, keyboard.ActionCharacterMargin, keyboard.ActionEmoji:
		return Insert(a.Text()), true
	case keyboard.ActionSpace:
		return Insert(" "), true
	case keyboard.ActionBackspace:
		return Delete(1), true
	case keyboard.ActionNewLine, keyboard.ActionReturn:
		return Insert("\n"), true
	case keyboard.ActionTab:
		return Insert("\t"), true
	case keyboard.ActionShift:
		if a.Casing() == keyboard.Lowercased {
			return SetType(keyboard.Alphabetic(keyboard.Uppercased)), true
		}
		return SetType(keyboard.Alphabetic(keyboard.Lowercased)), true
	case keyboard.ActionKeyboardType:
		return SetType(a.KeyboardType()), true
	case keyboard.ActionMoveCursorBackward:
		return Move(-1), true
	case keyboard.ActionMoveCursorForward:
		return Move(1), true
	case keyboard.ActionDismissKeyboard:
		return Perform(SystemDismissKeyboard), true
	case keyboard.ActionNextKeyboard:
		return Perform(SystemNextKeyboard), true
	case keyboard.ActionDictation:
		return Perform(SystemStartDictation), true
	case keyboard.ActionSettings:
		return Perform(SystemOpenSettings), true
	case keyboard.ActionNextLocale:
		return CycleLocale(), true
	case keyboard.ActionEndSentence:
		return CloseSentence(), true
	case keyboard.ActionNone, keyboard.ActionCustom:
		return Effect{}, false
	default:
		return Effect{}, false
	}
}

// StandardDoubleTap is the built-in double tap table. Only shift has one:
// it locks caps.
func StandardDoubleTap(a keyboard.Action) (Effect, bool) {
	if a.Kind() == keyboard.ActionShift {
		return SetType(keyboard.Alphabetic(keyboard.CapsLocked)), true
	}
	return Effect{}, false
}

// StandardLongPress is the built-in long press table.
func StandardLongPress(a keyboard.Action) (Effect, bool) {
	switch a.Kind() {
	case keyboard.ActionBackspace:
		return Delete(1), true
	case keyboard.ActionMoveCursorBackward:
		return Move(-1), true
	case keyboard.ActionMoveCursorForward:
		return Move(1), true
	default:
		return Effect{}, false
	}
}

// StandardRepeat is the built-in repeat press table.
func StandardRepeat(a keyboard.Action) (Effect, bool) {
	switch a.Kind() {
	case keyboard.ActionBackspace:
		return Delete(1), true
	case keyboard.ActionMoveCursorBackward:
		return Move(-1), true
	case keyboard.ActionMoveCursorForward:
		return Move(1), true
	default:
		return Effect{}, false
	}
}
