// Package drag moves the text cursor when the user slides a finger
// along the space bar.
package drag

import (
	"fmt"
	"strings"

	"softkeys/internal/keyboard"
)

// Sensitivity is the horizontal distance, in points, that moves the
// cursor by one character.
type Sensitivity float64

// Presets.
const (
	Fast   Sensitivity = 5
	Medium Sensitivity = 10
	Slow   Sensitivity = 15
)

// ParseSensitivity parses "fast", "medium" or "slow".
func ParseSensitivity(s string) (Sensitivity, error) {
	switch strings.ToLower(s) {
	case "fast":
		return Fast, nil
	case "medium", "":
		return Medium, nil
	case "slow":
		return Slow, nil
	default:
		return Medium, fmt.Errorf("unknown drag sensitivity: %q", s)
	}
}

// String returns the preset name, or the point count for custom values.
func (s Sensitivity) String() string {
	switch s {
	case Fast:
		return "fast"
	case Medium:
		return "medium"
	case Slow:
		return "slow"
	default:
		return fmt.Sprintf("%gpt", float64(s))
	}
}

// SpaceCursor converts space bar drags into AdjustTextPosition calls.
//
// A drag is a sequence of calls sharing the same start point. Each call
// moves the cursor by the difference between the offset implied by the
// total displacement and the offset already applied for that drag, so
// the cursor tracks the finger without drifting.
type SpaceCursor struct {
	proxy       keyboard.TextDocumentProxy
	sensitivity Sensitivity

	start   keyboard.Point
	active  bool
	applied int
}

// NewSpaceCursor returns a handler moving the cursor of proxy. A
// non-positive sensitivity falls back to Medium.
func NewSpaceCursor(proxy keyboard.TextDocumentProxy, sensitivity Sensitivity) *SpaceCursor {
	c := &SpaceCursor{proxy: proxy}
	c.SetSensitivity(sensitivity)
	return c
}

// SetSensitivity changes the sensitivity for subsequent drags.
func (c *SpaceCursor) SetSensitivity(s Sensitivity) {
	if s <= 0 {
		s = Medium
	}
	c.sensitivity = s
}

// Sensitivity returns the current sensitivity.
func (c *SpaceCursor) Sensitivity() Sensitivity { return c.sensitivity }

// HandleDragGesture moves the cursor for a drag from from to to. Vertical
// movement is ignored.
func (c *SpaceCursor) HandleDragGesture(from, to keyboard.Point) {
	if !c.active || from != c.start {
		c.start = from
		c.active = true
		c.applied = 0
	}

	offset := int((to.X - from.X) / float64(c.sensitivity))
	delta := offset - c.applied
	if delta == 0 {
		return
	}
	c.applied = offset
	c.proxy.AdjustTextPosition(delta)
}

// Reset forgets the current drag.
func (c *SpaceCursor) Reset() {
	c.active = false
	c.applied = 0
}

// EndDragGesture implements dispatch.DragEnder.
func (c *SpaceCursor) EndDragGesture() { c.Reset() }
