package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"softkeys/internal/ime"
	"softkeys/internal/keyboard"
)

// StepKind identifies a script line.
type StepKind int

const (
	StepGesture StepKind = iota
	StepDrag
	StepType
	StepApply
)

// Step is one parsed script line.
//
//	tap character:a
//	drag space 50,0 30,0
//	type Hello world
//	apply 0
type Step struct {
	Line    int
	Kind    StepKind
	Gesture keyboard.Gesture
	Action  keyboard.Action
	From    keyboard.Point
	To      keyboard.Point
	Text    string
	Index   int
}

// ParseScript reads a replay script. Blank lines and lines starting with
// # are ignored.
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		step, err := parseStep(line, raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		step.Line = lineNo
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func parseStep(line, raw string) (Step, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "type":
		// Keep inner and trailing spaces, they are typed too.
		text := strings.TrimLeft(raw, " \t")
		text = strings.TrimPrefix(text, "type")
		if text == "" || (text[0] != ' ' && text[0] != '\t') {
			return Step{}, fmt.Errorf("type needs text")
		}
		return Step{Kind: StepType, Text: text[1:]}, nil

	case "apply":
		if len(fields) != 2 {
			return Step{}, fmt.Errorf("usage: apply <index>")
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil || i < 0 {
			return Step{}, fmt.Errorf("invalid suggestion index %q", fields[1])
		}
		return Step{Kind: StepApply, Index: i}, nil

	case "drag":
		if len(fields) != 4 {
			return Step{}, fmt.Errorf("usage: drag <action> x1,y1 x2,y2")
		}
		a, err := keyboard.ParseAction(fields[1])
		if err != nil {
			return Step{}, err
		}
		from, err := parsePoint(fields[2])
		if err != nil {
			return Step{}, err
		}
		to, err := parsePoint(fields[3])
		if err != nil {
			return Step{}, err
		}
		return Step{Kind: StepDrag, Action: a, From: from, To: to}, nil
	}

	if len(fields) != 2 {
		return Step{}, fmt.Errorf("usage: <gesture> <action>")
	}
	g, err := keyboard.ParseGesture(fields[0])
	if err != nil {
		return Step{}, err
	}
	a, err := keyboard.ParseAction(fields[1])
	if err != nil {
		return Step{}, err
	}
	return Step{Kind: StepGesture, Gesture: g, Action: a}, nil
}

func parsePoint(s string) (keyboard.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return keyboard.Point{}, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return keyboard.Point{}, fmt.Errorf("invalid point %q", s)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return keyboard.Point{}, fmt.Errorf("invalid point %q", s)
	}
	return keyboard.Point{X: x, Y: y}, nil
}

// Run replays steps against session. A drag step is followed by EndDrag.
func Run(session *ime.Session, steps []Step) error {
	for _, step := range steps {
		if err := runStep(session, step); err != nil {
			return fmt.Errorf("line %d: %w", step.Line, err)
		}
	}
	return nil
}

func runStep(session *ime.Session, step Step) error {
	switch step.Kind {
	case StepGesture:
		return session.Handle(step.Gesture, step.Action)
	case StepDrag:
		if err := session.HandleDrag(step.Action, step.From, step.To); err != nil {
			return err
		}
		return session.EndDrag()
	case StepApply:
		suggestions := session.Suggestions()
		if step.Index >= len(suggestions) {
			return fmt.Errorf("no suggestion at index %d", step.Index)
		}
		return session.ApplySuggestion(suggestions[step.Index])
	case StepType:
		g := uniseg.NewGraphemes(step.Text)
		for g.Next() {
			var err error
			if cluster := g.Str(); cluster == " " {
				err = session.Handle(keyboard.Tap, keyboard.Space())
			} else {
				err = session.Type(cluster)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown step kind %d", step.Kind)
}
