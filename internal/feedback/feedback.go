// Package feedback plays key clicks and haptics for handled gestures.
//
// Clicks are synthesized once per configuration with beep and cached as
// PCM buffers. The Engine never blocks on playback: it hands a clip to
// the host's AudioOutput and returns.
package feedback

import (
	"log/slog"
	"sync"

	"github.com/gopxl/beep"

	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
)

// AudioFeedback is the click played for a gesture.
type AudioFeedback uint8

const (
	AudioNone AudioFeedback = iota
	AudioInput
	AudioDelete
	AudioSystem
)

// String returns the sound name.
func (a AudioFeedback) String() string {
	switch a {
	case AudioInput:
		return "input"
	case AudioDelete:
		return "delete"
	case AudioSystem:
		return "system"
	default:
		return "none"
	}
}

// Sounds lists the audible feedback kinds.
func Sounds() []AudioFeedback {
	return []AudioFeedback{AudioInput, AudioDelete, AudioSystem}
}

// HapticFeedback is the vibration played for a gesture.
type HapticFeedback uint8

const (
	HapticNone HapticFeedback = iota
	HapticLight
	HapticMedium
	HapticSelection
)

// String returns the haptic name.
func (h HapticFeedback) String() string {
	switch h {
	case HapticLight:
		return "light"
	case HapticMedium:
		return "medium"
	case HapticSelection:
		return "selection"
	default:
		return "none"
	}
}

// AudioFor returns the click for g on a.
func AudioFor(g keyboard.Gesture, a keyboard.Action) AudioFeedback {
	if g == keyboard.Drag || g == keyboard.Release {
		return AudioNone
	}
	switch a.Kind() {
	case keyboard.ActionBackspace:
		return AudioDelete
	case keyboard.ActionCharacter, keyboard.ActionCharacterMargin, keyboard.ActionEmoji,
		keyboard.ActionSpace, keyboard.ActionReturn, keyboard.ActionNewLine, keyboard.ActionTab:
		return AudioInput
	case keyboard.ActionShift, keyboard.ActionKeyboardType,
		keyboard.ActionMoveCursorBackward, keyboard.ActionMoveCursorForward,
		keyboard.ActionNextKeyboard, keyboard.ActionNextLocale, keyboard.ActionDismissKeyboard,
		keyboard.ActionDictation, keyboard.ActionSettings, keyboard.ActionCustom:
		return AudioSystem
	default:
		return AudioNone
	}
}

// HapticFor returns the haptic for g on a.
func HapticFor(g keyboard.Gesture, a keyboard.Action) HapticFeedback {
	if a.Kind() == keyboard.ActionNone || a.Kind() == keyboard.ActionEndSentence {
		return HapticNone
	}
	switch g {
	case keyboard.Tap, keyboard.DoubleTap:
		return HapticLight
	case keyboard.LongPress:
		return HapticMedium
	case keyboard.RepeatPress:
		return HapticSelection
	default:
		return HapticNone
	}
}

// AudioOutput plays a rendered clip. Implementations must not block.
type AudioOutput interface {
	PlayClip(sound AudioFeedback, clip beep.StreamSeeker, format beep.Format)
}

// HapticOutput triggers a vibration. Implementations must not block.
type HapticOutput interface {
	TriggerHaptic(h HapticFeedback)
}

// Config controls feedback.
type Config struct {
	AudioEnabled  bool
	HapticEnabled bool

	// Volume is the linear click volume in [0, 1].
	Volume float64

	// SampleRate of the rendered clips, in Hz.
	SampleRate int
}

// DefaultConfig returns audio and haptics on at half volume, 44.1 kHz.
func DefaultConfig() Config {
	return Config{
		AudioEnabled:  true,
		HapticEnabled: true,
		Volume:        0.5,
		SampleRate:    44100,
	}
}

func (c Config) format() beep.Format {
	rate := c.SampleRate
	if rate <= 0 {
		rate = DefaultConfig().SampleRate
	}
	return beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: 2}
}

// Engine triggers feedback. It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	audio  AudioOutput
	haptic HapticOutput
	clips  map[AudioFeedback]*beep.Buffer
	logger *slog.Logger
}

// NewEngine returns an engine playing through audio and haptic. Either
// output may be nil.
func NewEngine(cfg Config, audio AudioOutput, haptic HapticOutput, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Default().WithComponent("feedback").Logger
	}
	return &Engine{
		cfg:    cfg,
		audio:  audio,
		haptic: haptic,
		clips:  make(map[AudioFeedback]*beep.Buffer),
		logger: logger,
	}
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reconfigure applies cfg. Cached clips are re-rendered on next use when
// the volume or sample rate changed.
func (e *Engine) Reconfigure(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.Volume != e.cfg.Volume || cfg.SampleRate != e.cfg.SampleRate {
		e.clips = make(map[AudioFeedback]*beep.Buffer)
	}
	e.cfg = cfg
	e.logger.Debug("feedback reconfigured",
		"audio", cfg.AudioEnabled, "haptic", cfg.HapticEnabled, "volume", cfg.Volume)
}

// Preload renders every click so the first key press does not pay for
// synthesis.
func (e *Engine) Preload() {
	for _, s := range Sounds() {
		e.Clip(s)
	}
}

// Clip returns the rendered clip for sound, or nil for AudioNone.
func (e *Engine) Clip(sound AudioFeedback) *beep.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clipLocked(sound)
}

func (e *Engine) clipLocked(sound AudioFeedback) *beep.Buffer {
	if sound == AudioNone {
		return nil
	}
	if buf, ok := e.clips[sound]; ok {
		return buf
	}
	buf := renderClip(sound, e.cfg.format(), e.cfg.Volume)
	e.clips[sound] = buf
	return buf
}

// TriggerFeedback plays the click and haptic for g on a.
func (e *Engine) TriggerFeedback(g keyboard.Gesture, a keyboard.Action) {
	e.mu.Lock()
	cfg := e.cfg
	var clip *beep.Buffer
	sound := AudioFor(g, a)
	if cfg.AudioEnabled && e.audio != nil && sound != AudioNone {
		clip = e.clipLocked(sound)
	}
	e.mu.Unlock()

	if clip != nil {
		e.audio.PlayClip(sound, clip.Streamer(0, clip.Len()), clip.Format())
	}

	if cfg.HapticEnabled && e.haptic != nil {
		if h := HapticFor(g, a); h != HapticNone {
			e.haptic.TriggerHaptic(h)
		}
	}
}
