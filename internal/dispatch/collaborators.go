package dispatch

import (
	"softkeys/internal/action"
	"softkeys/internal/keyboard"
)

// FeedbackSink plays audio and haptic feedback for a handled gesture.
type FeedbackSink interface {
	TriggerFeedback(g keyboard.Gesture, a keyboard.Action)
}

// EmojiTracker records emoji usage.
type EmojiTracker interface {
	RegisterEmoji(emoji string)
}

// DragGestureHandler turns drags on the space bar into cursor movement.
type DragGestureHandler interface {
	HandleDragGesture(from, to keyboard.Point)
}

// DragEnder is implemented by drag handlers that keep state for the
// current drag. EndDragGesture is called when the space bar is released.
type DragEnder interface {
	EndDragGesture()
}

// SystemActionHandler performs effects outside the document, such as
// dismissing the keyboard.
type SystemActionHandler interface {
	PerformSystemAction(s action.SystemAction)
}

// FeedbackFunc adapts a function to FeedbackSink.
type FeedbackFunc func(g keyboard.Gesture, a keyboard.Action)

// TriggerFeedback implements FeedbackSink.
func (f FeedbackFunc) TriggerFeedback(g keyboard.Gesture, a keyboard.Action) { f(g, a) }

// SystemFunc adapts a function to SystemActionHandler.
type SystemFunc func(s action.SystemAction)

// PerformSystemAction implements SystemActionHandler.
func (f SystemFunc) PerformSystemAction(s action.SystemAction) { f(s) }

type nop struct{}

func (nop) TriggerFeedback(keyboard.Gesture, keyboard.Action) {}
func (nop) RegisterEmoji(string)                              {}
func (nop) HandleDragGesture(keyboard.Point, keyboard.Point)  {}
func (nop) PerformSystemAction(action.SystemAction)           {}
