// Package dispatch is the gesture dispatcher of the keyboard.
//
// A Handler receives (gesture, action) events. For every event that the
// resolver can handle it applies the resolved effect to the document and
// then runs a fixed chain of reactions:
//
//	effect → feedback → end sentence → keyboard type → emoji → autocomplete
//
// Every collaborator is injected through Config so hosts and tests can
// replace them. A Handler is not safe for concurrent use.
package dispatch

import (
	"log/slog"

	"softkeys/internal/action"
	"softkeys/internal/behavior"
	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
)

// Step is one stage of Handle.
type Step uint8

const (
	StepEffect Step = iota
	StepFeedback
	StepEndSentence
	StepKeyboardType
	StepEmoji
	StepAutocomplete
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepEffect:
		return "effect"
	case StepFeedback:
		return "feedback"
	case StepEndSentence:
		return "endSentence"
	case StepKeyboardType:
		return "keyboardType"
	case StepEmoji:
		return "emoji"
	case StepAutocomplete:
		return "autocomplete"
	default:
		return "unknown"
	}
}

// Observer is notified as each step of Handle starts.
type Observer func(step Step, g keyboard.Gesture, a keyboard.Action)

// Config holds the collaborators of a Handler. Nil fields get the standard
// resolver and policy, or a no-op.
type Config struct {
	Resolver action.Resolver
	Behavior behavior.Policy
	Feedback FeedbackSink
	Emojis   EmojiTracker
	Drag     DragGestureHandler
	System   SystemActionHandler

	// OnKeyboardTypeChanged is called whenever the context keyboard type
	// changes.
	OnKeyboardTypeChanged func(keyboard.Type)

	// OnAutocomplete is called at the end of every handled event.
	OnAutocomplete func()

	Observer Observer
	Logger   *slog.Logger
}

// Handler dispatches gestures against one keyboard context.
type Handler struct {
	ctx *keyboard.Context

	resolver       action.Resolver
	behavior       behavior.Policy
	feedback       FeedbackSink
	emojis         EmojiTracker
	drag           DragGestureHandler
	system         SystemActionHandler
	onTypeChanged  func(keyboard.Type)
	onAutocomplete func()
	observer       Observer
	logger         *slog.Logger

	// endingSentence is set while the closing action of a sentence is
	// being handled, so that nested Handle cannot end another sentence.
	endingSentence bool
}

// New returns a Handler for ctx.
func New(ctx *keyboard.Context, cfg Config) *Handler {
	h := &Handler{
		ctx:            ctx,
		resolver:       cfg.Resolver,
		behavior:       cfg.Behavior,
		feedback:       cfg.Feedback,
		emojis:         cfg.Emojis,
		drag:           cfg.Drag,
		system:         cfg.System,
		onTypeChanged:  cfg.OnKeyboardTypeChanged,
		onAutocomplete: cfg.OnAutocomplete,
		observer:       cfg.Observer,
		logger:         cfg.Logger,
	}
	if h.resolver == nil {
		h.resolver = action.Standard()
	}
	if h.behavior == nil {
		h.behavior = behavior.NewStandard(ctx, behavior.DefaultOptions())
	}
	if h.feedback == nil {
		h.feedback = nop{}
	}
	if h.emojis == nil {
		h.emojis = nop{}
	}
	if h.drag == nil {
		h.drag = nop{}
	}
	if h.system == nil {
		h.system = nop{}
	}
	if h.onTypeChanged == nil {
		h.onTypeChanged = func(keyboard.Type) {}
	}
	if h.onAutocomplete == nil {
		h.onAutocomplete = func() {}
	}
	if h.logger == nil {
		h.logger = logging.Default().WithComponent("dispatch").Logger
	}
	return h
}

// Context returns the keyboard context the handler mutates.
func (h *Handler) Context() *keyboard.Context { return h.ctx }

// CanHandle reports whether g on a resolves to an effect.
func (h *Handler) CanHandle(g keyboard.Gesture, a keyboard.Action) bool {
	_, ok := h.resolver.Resolve(g, a)
	return ok
}

// Handle applies g on a and runs the reactions. Pairs that resolve to
// nothing are ignored. A release of the space bar also ends the current
// drag.
func (h *Handler) Handle(g keyboard.Gesture, a keyboard.Action) {
	if g == keyboard.Release && a.Kind() == keyboard.ActionSpace {
		h.EndDrag()
	}

	effect, ok := h.resolver.Resolve(g, a)
	if !ok {
		h.logger.Debug("unhandled gesture", "gesture", g.String(), "action", a)
		return
	}

	h.observe(StepEffect, g, a)
	h.apply(effect)
	h.logger.Debug("handled gesture", "gesture", g.String(), "action", a, "effect", effect.String())

	h.observe(StepFeedback, g, a)
	h.feedback.TriggerFeedback(g, a)

	if !h.endingSentence {
		h.observe(StepEndSentence, g, a)
		h.TryEndSentence(g, a)
	}

	h.observe(StepKeyboardType, g, a)
	h.TryChangeKeyboardType(g, a)

	h.observe(StepEmoji, g, a)
	h.TryRegisterEmoji(g, a)

	h.observe(StepAutocomplete, g, a)
	h.onAutocomplete()
}

// TryEndSentence closes the current sentence when the policy asks for it,
// by handling a tap on the policy's closing action. It does nothing while
// a closing action is already being handled.
func (h *Handler) TryEndSentence(g keyboard.Gesture, a keyboard.Action) {
	if h.endingSentence || !h.behavior.ShouldEndSentence(g, a) {
		return
	}

	h.endingSentence = true
	defer func() { h.endingSentence = false }()

	closing := h.behavior.SentenceClosingAction()
	h.logger.Debug("ending sentence", "action", closing)
	h.Handle(keyboard.Tap, closing)
}

// TryChangeKeyboardType switches to the policy's preferred keyboard type
// when it differs from the current one.
func (h *Handler) TryChangeKeyboardType(g keyboard.Gesture, a keyboard.Action) {
	h.setKeyboardType(h.behavior.PreferredKeyboardType(g, a))
}

// TryRegisterEmoji records a tapped emoji with the tracker.
func (h *Handler) TryRegisterEmoji(g keyboard.Gesture, a keyboard.Action) {
	if g != keyboard.Tap || !a.IsEmoji() {
		return
	}
	h.emojis.RegisterEmoji(a.Text())
}

// HandleDrag forwards drags on the space bar to the drag handler.
func (h *Handler) HandleDrag(a keyboard.Action, from, to keyboard.Point) {
	if a.Kind() != keyboard.ActionSpace {
		return
	}
	h.drag.HandleDragGesture(from, to)
}

// EndDrag tells the drag handler that the finger left the space bar.
func (h *Handler) EndDrag() {
	if d, ok := h.drag.(DragEnder); ok {
		d.EndDragGesture()
	}
}

func (h *Handler) apply(e action.Effect) {
	proxy := h.ctx.Proxy
	switch e.Kind {
	case action.EffectNoop:
	case action.EffectInsertText:
		proxy.InsertText(e.Text)
	case action.EffectDeleteBackward:
		proxy.DeleteBackward(e.Count)
	case action.EffectSetKeyboardType:
		h.setKeyboardType(e.KeyboardType)
	case action.EffectMoveCursor:
		proxy.AdjustTextPosition(e.Offset)
	case action.EffectEndSentence:
		keyboard.CloseSentence(proxy)
	case action.EffectNextLocale:
		locale := h.ctx.SelectNextLocale()
		h.logger.Debug("locale changed", "locale", locale.String())
	case action.EffectSystem:
		h.system.PerformSystemAction(e.System)
	}
}

func (h *Handler) setKeyboardType(t keyboard.Type) {
	if h.ctx.KeyboardType == t {
		return
	}
	h.logger.Debug("keyboard type changed", "from", h.ctx.KeyboardType.String(), "to", t.String())
	h.ctx.KeyboardType = t
	h.onTypeChanged(t)
}

func (h *Handler) observe(step Step, g keyboard.Gesture, a keyboard.Action) {
	if h.observer != nil {
		h.observer(step, g, a)
	}
}
