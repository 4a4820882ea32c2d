package action

import (
	"encoding/json"
	"fmt"
	"os"

	"softkeys/internal/keyboard"
	"softkeys/internal/schemavalidation"
)

type overrideKey struct {
	gesture keyboard.Gesture
	action  keyboard.Action
}

type overrideEntry struct {
	effect   Effect
	disabled bool
}

// Overrides resolves explicit per-(gesture, action) entries first and falls
// back to a base resolver for everything else. An entry either replaces the
// effect or disables the pair.
type Overrides struct {
	base    Resolver
	entries map[overrideKey]overrideEntry
}

// NewOverrides returns an empty override layer over base. A nil base
// resolves nothing.
func NewOverrides(base Resolver) *Overrides {
	return &Overrides{
		base:    base,
		entries: make(map[overrideKey]overrideEntry),
	}
}

// Set makes g on a resolve to e.
func (o *Overrides) Set(g keyboard.Gesture, a keyboard.Action, e Effect) {
	o.entries[overrideKey{g, a}] = overrideEntry{effect: e}
}

// Disable makes g on a resolve to nothing.
func (o *Overrides) Disable(g keyboard.Gesture, a keyboard.Action) {
	o.entries[overrideKey{g, a}] = overrideEntry{disabled: true}
}

// Len returns the number of entries.
func (o *Overrides) Len() int { return len(o.entries) }

// Resolve implements Resolver.
func (o *Overrides) Resolve(g keyboard.Gesture, a keyboard.Action) (Effect, bool) {
	if entry, ok := o.entries[overrideKey{g, a}]; ok {
		if entry.disabled {
			return Effect{}, false
		}
		return entry.effect, true
	}
	if o.base == nil {
		return Effect{}, false
	}
	return o.base.Resolve(g, a)
}

// tableFile is the on-disk action table.
type tableFile struct {
	Version   int          `json:"version"`
	Overrides []tableEntry `json:"overrides"`
}

type tableEntry struct {
	Gesture string     `json:"gesture"`
	Action  string     `json:"action"`
	Effect  effectSpec `json:"effect"`
}

type effectSpec struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	Count        int    `json:"count,omitempty"`
	Offset       int    `json:"offset,omitempty"`
	KeyboardType string `json:"keyboard_type,omitempty"`
	System       string `json:"system,omitempty"`
}

// LoadOverrides reads a JSON action table from path.
func LoadOverrides(path string, base Resolver) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read action table: %w", err)
	}
	o, err := ParseOverrides(data, base)
	if err != nil {
		return nil, fmt.Errorf("action table %s: %w", path, err)
	}
	return o, nil
}

// ParseOverrides validates a JSON action table against its schema and
// builds the override layer.
func ParseOverrides(data []byte, base Resolver) (*Overrides, error) {
	if err := schemavalidation.ValidateJSON(schemavalidation.ActionTable, data); err != nil {
		return nil, err
	}

	var file tableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode action table: %w", err)
	}

	o := NewOverrides(base)
	for i, entry := range file.Overrides {
		g, err := keyboard.ParseGesture(entry.Gesture)
		if err != nil {
			return nil, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		a, err := keyboard.ParseAction(entry.Action)
		if err != nil {
			return nil, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		if entry.Effect.Type == "disabled" {
			o.Disable(g, a)
			continue
		}
		e, err := entry.Effect.effect()
		if err != nil {
			return nil, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		o.Set(g, a, e)
	}
	return o, nil
}

func (s effectSpec) effect() (Effect, error) {
	switch s.Type {
	case "noop":
		return Noop(), nil
	case "insertText":
		return Insert(s.Text), nil
	case "deleteBackward":
		count := s.Count
		if count == 0 {
			count = 1
		}
		return Delete(count), nil
	case "setKeyboardType":
		t, err := keyboard.ParseType(s.KeyboardType)
		if err != nil {
			return Effect{}, err
		}
		return SetType(t), nil
	case "moveCursor":
		return Move(s.Offset), nil
	case "endSentence":
		return CloseSentence(), nil
	case "nextLocale":
		return CycleLocale(), nil
	case "system":
		sys, err := ParseSystemAction(s.System)
		if err != nil {
			return Effect{}, err
		}
		return Perform(sys), nil
	default:
		return Effect{}, fmt.Errorf("unknown effect type: %q", s.Type)
	}
}
