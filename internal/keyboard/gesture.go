package keyboard

import (
	"fmt"
	"strings"
)

// Gesture is an already classified touch interaction on a key.
type Gesture uint8

const (
	Tap Gesture = iota
	DoubleTap
	LongPress
	RepeatPress
	Drag
	Release
)

// Gestures lists every gesture in declaration order.
func Gestures() []Gesture {
	return []Gesture{Tap, DoubleTap, LongPress, RepeatPress, Drag, Release}
}

// String returns the gesture name.
func (g Gesture) String() string {
	switch g {
	case Tap:
		return "tap"
	case DoubleTap:
		return "doubleTap"
	case LongPress:
		return "longPress"
	case RepeatPress:
		return "repeatPress"
	case Drag:
		return "drag"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// ParseGesture parses a gesture name. Matching ignores case.
func ParseGesture(s string) (Gesture, error) {
	switch strings.ToLower(s) {
	case "tap":
		return Tap, nil
	case "doubletap":
		return DoubleTap, nil
	case "longpress":
		return LongPress, nil
	case "repeatpress", "repeat":
		return RepeatPress, nil
	case "drag":
		return Drag, nil
	case "release":
		return Release, nil
	default:
		return Tap, fmt.Errorf("unknown gesture: %q", s)
	}
}

// Point is a location on the keyboard surface, in points.
type Point struct {
	X float64
	Y float64
}
