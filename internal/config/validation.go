package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is reports ErrInvalidConfig for any non-empty set.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && len(e) > 0
}

// ValidateConfig performs comprehensive validation of the configuration.
// Warnings alone do not fail validation.
func ValidateConfig(c *Config) error {
	errs := Check(c)
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Check returns every validation finding, warnings included.
func Check(c *Config) ValidationErrors {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateKeyboard(&c.Keyboard)...)
	errs = append(errs, validateFeedback(&c.Feedback)...)
	errs = append(errs, validateDrag(&c.Drag)...)
	errs = append(errs, validateEmoji(&c.Emoji)...)
	errs = append(errs, validateAutocomplete(&c.Autocomplete)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	return errs
}

func validateKeyboard(k *KeyboardConfig) ValidationErrors {
	var errs ValidationErrors

	if len(k.Locales) == 0 {
		errs = append(errs, *RequiredFieldError("keyboard.locales"))
	}
	for i, l := range k.Locales {
		if _, err := language.Parse(l); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("keyboard.locales[%d]", i),
				Message: fmt.Sprintf("invalid locale %q: %v", l, err),
			})
		}
	}

	if _, err := keyboard.ParseAutocapitalization(k.Autocapitalization); err != nil {
		errs = append(errs, ValidationError{
			Field:   "keyboard.autocapitalization",
			Message: err.Error() + " (valid: sentences, words, allCharacters, none)",
		})
	}

	if _, err := keyboard.ParseType(k.InitialType); err != nil {
		errs = append(errs, ValidationError{Field: "keyboard.initial_type", Message: err.Error()})
	}

	if _, err := keyboard.ParseDevice(k.Device); err != nil {
		errs = append(errs, ValidationError{Field: "keyboard.device", Message: err.Error()})
	}

	if k.ActionTablePath != "" {
		if _, err := os.Stat(expandPath(k.ActionTablePath)); err != nil {
			errs = append(errs, ValidationError{
				Field:   "keyboard.action_table_path",
				Message: fmt.Sprintf("action table not readable: %v", err),
			})
		}
	}

	return errs
}

func validateFeedback(f *FeedbackConfig) ValidationErrors {
	var errs ValidationErrors

	if f.Volume < 0 || f.Volume > 1 {
		errs = append(errs, *RangeError("feedback.volume", 0, 1))
	}
	if f.SampleRate < 8000 || f.SampleRate > 192000 {
		errs = append(errs, *RangeError("feedback.sample_rate", 8000, 192000))
	}

	return errs
}

func validateDrag(d *DragConfig) ValidationErrors {
	var errs ValidationErrors

	switch d.Sensitivity {
	case "fast", "medium", "slow":
	case "custom":
		if d.PointsPerCharacter <= 0 {
			errs = append(errs, ValidationError{
				Field:   "drag.points_per_character",
				Message: "must be positive when sensitivity is 'custom'",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "drag.sensitivity",
			Message: fmt.Sprintf("invalid sensitivity: %s (valid: fast, medium, slow, custom)", d.Sensitivity),
		})
	}

	return errs
}

func validateEmoji(e *EmojiConfig) ValidationErrors {
	var errs ValidationErrors

	switch e.Tracker {
	case "recent", "frequent", "none":
	default:
		errs = append(errs, ValidationError{
			Field:   "emoji.tracker",
			Message: fmt.Sprintf("invalid tracker: %s (valid: recent, frequent, none)", e.Tracker),
		})
	}
	if e.MaxCount < 1 {
		errs = append(errs, ValidationError{
			Field:   "emoji.max_count",
			Message: "max count must be at least 1",
		})
	}

	return errs
}

func validateAutocomplete(a *AutocompleteConfig) ValidationErrors {
	var errs ValidationErrors

	if a.MaxSuggestions < 1 || a.MaxSuggestions > 10 {
		errs = append(errs, *RangeError("autocomplete.max_suggestions", 1, 10))
	}
	if a.TimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "autocomplete.timeout_ms",
			Message: "timeout cannot be negative",
		})
	}

	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	switch s.Type {
	case "sqlite":
		if s.Path == "" {
			errs = append(errs, ValidationError{
				Field:   "storage.path",
				Message: "path is required when type is 'sqlite'",
			})
		}
	case "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.type",
			Message: fmt.Sprintf("invalid storage type: %s (valid: sqlite, memory)", s.Type),
		})
	}

	if s.BusyTimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.busy_timeout_ms",
			Message: "busy timeout cannot be negative",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
		// Valid formats
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %q (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	// The action table may be deployed after the config
	warningFields := []string{
		"keyboard.action_table_path",
	}
	for _, f := range warningFields {
		if strings.HasPrefix(e.Field, f) {
			return true
		}
	}
	return false
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

// ErrInvalidConfig is matched by errors.Is on any failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")
