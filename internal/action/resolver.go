package action

import "softkeys/internal/keyboard"

// Resolver maps a gesture on an action to its effect. The boolean is false
// when the pair has no effect.
type Resolver interface {
	Resolve(g keyboard.Gesture, a keyboard.Action) (Effect, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(g keyboard.Gesture, a keyboard.Action) (Effect, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(g keyboard.Gesture, a keyboard.Action) (Effect, bool) {
	return f(g, a)
}

// Table maps an action to its effect for one gesture kind.
type Table func(a keyboard.Action) (Effect, bool)

// Tables resolves with one table per gesture kind. A nil table resolves
// nothing. Drag and release never resolve; drags are routed to the drag
// handler instead.
type Tables struct {
	Tap       Table
	DoubleTap Table
	LongPress Table
	Repeat    Table
}

// Standard returns the built-in tables.
func Standard() Tables {
	return Tables{
		Tap:       StandardTap,
		DoubleTap: StandardDoubleTap,
		LongPress: StandardLongPress,
		Repeat:    StandardRepeat,
	}
}

// Resolve implements Resolver.
func (t Tables) Resolve(g keyboard.Gesture, a keyboard.Action) (Effect, bool) {
	var table Table
	switch g {
	case keyboard.Tap:
		table = t.Tap
	case keyboard.DoubleTap:
		table = t.DoubleTap
	case keyboard.LongPress:
		table = t.LongPress
	case keyboard.RepeatPress:
		table = t.Repeat
	case keyboard.Drag, keyboard.Release:
		return Effect{}, false
	}
	if table == nil {
		return Effect{}, false
	}
	return table(a)
}

// Table returns the table used for g, or nil for drag and release.
func (t Tables) Table(g keyboard.Gesture) Table {
	switch g {
	case keyboard.Tap:
		return t.Tap
	case keyboard.DoubleTap:
		return t.DoubleTap
	case keyboard.LongPress:
		return t.LongPress
	case keyboard.RepeatPress:
		return t.Repeat
	default:
		return nil
	}
}
