// Package config handles configuration loading, validation, and management for softkeys.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"softkeys/internal/logging"
	"softkeys/internal/schemavalidation"
)

// Version is the current configuration schema version.
const Version = 2

// Config holds the complete keyboard configuration.
type Config struct {
	// Version is the configuration schema version for migrations.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Keyboard configures typing behavior.
	Keyboard KeyboardConfig `toml:"keyboard" json:"keyboard" yaml:"keyboard"`

	// Feedback configures key clicks and haptics.
	Feedback FeedbackConfig `toml:"feedback" json:"feedback" yaml:"feedback"`

	// Drag configures space bar cursor dragging.
	Drag DragConfig `toml:"drag" json:"drag" yaml:"drag"`

	// Emoji configures the emoji usage tracker.
	Emoji EmojiConfig `toml:"emoji" json:"emoji" yaml:"emoji"`

	// Autocomplete configures word suggestions.
	Autocomplete AutocompleteConfig `toml:"autocomplete" json:"autocomplete" yaml:"autocomplete"`

	// Storage configuration for persistence.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// KeyboardConfig holds typing behavior.
type KeyboardConfig struct {
	// Locales are BCP 47 tags the next-locale key cycles through. The
	// first one is active at start.
	Locales []string `toml:"locales" json:"locales" yaml:"locales"`

	// Autocapitalization is "sentences", "words", "allCharacters" or "none".
	Autocapitalization string `toml:"autocapitalization" json:"autocapitalization" yaml:"autocapitalization"`

	// InitialType is the keyboard type shown first, e.g. "alphabetic".
	InitialType string `toml:"initial_type" json:"initial_type" yaml:"initial_type"`

	// Device is "phone" or "pad".
	Device string `toml:"device" json:"device" yaml:"device"`

	// EndSentenceOnDoubleSpace replaces two spaces after a word with ". ".
	EndSentenceOnDoubleSpace bool `toml:"end_sentence_on_double_space" json:"end_sentence_on_double_space" yaml:"end_sentence_on_double_space"`

	// ReturnToAlphabetic switches numeric and symbolic keyboards back
	// after space or return.
	ReturnToAlphabetic bool `toml:"return_to_alphabetic" json:"return_to_alphabetic" yaml:"return_to_alphabetic"`

	// ActionTablePath is an optional JSON action table layered over the
	// standard gesture tables.
	ActionTablePath string `toml:"action_table_path" json:"action_table_path" yaml:"action_table_path"`
}

// FeedbackConfig holds audio and haptic feedback settings.
type FeedbackConfig struct {
	Audio  bool `toml:"audio" json:"audio" yaml:"audio"`
	Haptic bool `toml:"haptic" json:"haptic" yaml:"haptic"`

	// Volume is the click volume in [0, 1].
	Volume float64 `toml:"volume" json:"volume" yaml:"volume"`

	// SampleRate of the synthesized clicks in Hz.
	SampleRate int `toml:"sample_rate" json:"sample_rate" yaml:"sample_rate"`
}

// DragConfig holds space bar drag settings.
type DragConfig struct {
	// Sensitivity is "fast", "medium", "slow" or "custom".
	Sensitivity string `toml:"sensitivity" json:"sensitivity" yaml:"sensitivity"`

	// PointsPerCharacter is used when Sensitivity is "custom".
	PointsPerCharacter float64 `toml:"points_per_character" json:"points_per_character" yaml:"points_per_character"`
}

// EmojiConfig holds emoji tracker settings.
type EmojiConfig struct {
	// Tracker is "recent", "frequent" or "none".
	Tracker string `toml:"tracker" json:"tracker" yaml:"tracker"`

	// MaxCount caps the tracked list.
	MaxCount int `toml:"max_count" json:"max_count" yaml:"max_count"`
}

// AutocompleteConfig holds suggestion settings.
type AutocompleteConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// MaxSuggestions caps the suggestion bar.
	MaxSuggestions int `toml:"max_suggestions" json:"max_suggestions" yaml:"max_suggestions"`

	// TimeoutMs bounds one lexicon query.
	TimeoutMs int `toml:"timeout_ms" json:"timeout_ms" yaml:"timeout_ms"`

	// LearnWords adds unknown words the user picks to the lexicon.
	LearnWords bool `toml:"learn_words" json:"learn_words" yaml:"learn_words"`

	// Words is a static word list used when storage is "memory".
	Words []string `toml:"words" json:"words" yaml:"words"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Type is the storage backend type: "sqlite" or "memory".
	Type string `toml:"type" json:"type" yaml:"type"`

	// Path is the path to the database file (for sqlite).
	Path string `toml:"path" json:"path" yaml:"path"`

	// BusyTimeoutMs is the SQLite busy timeout in milliseconds.
	BusyTimeoutMs int `toml:"busy_timeout_ms" json:"busy_timeout_ms" yaml:"busy_timeout_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := SoftkeysDir()

	return &Config{
		Version: Version,
		Keyboard: KeyboardConfig{
			Locales:                  []string{"en"},
			Autocapitalization:       "sentences",
			InitialType:              "alphabetic",
			Device:                   "phone",
			EndSentenceOnDoubleSpace: true,
			ReturnToAlphabetic:       true,
		},
		Feedback: FeedbackConfig{
			Audio:      true,
			Haptic:     true,
			Volume:     0.5,
			SampleRate: 44100,
		},
		Drag: DragConfig{
			Sensitivity:        "medium",
			PointsPerCharacter: 10,
		},
		Emoji: EmojiConfig{
			Tracker:  "frequent",
			MaxCount: 30,
		},
		Autocomplete: AutocompleteConfig{
			Enabled:        true,
			MaxSuggestions: 3,
			TimeoutMs:      150,
			LearnWords:     true,
			Words:          []string{},
		},
		Storage: StorageConfig{
			Type:          "sqlite",
			Path:          filepath.Join(dir, "softkeys.db"),
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "softkeys.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
// Older versions are migrated in memory and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	if _, err := MigrateConfig(cfg, ""); err != nil {
		return nil, fmt.Errorf("migrate config: %w", err)
	}

	// Apply environment variable overrides
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in the given format ("toml", "json", "yaml" or
// "yml") on top of the defaults. Unknown keys are errors; JSON is also
// checked against the config schema first.
func Parse(data []byte, format string) (*Config, error) {
	cfg := DefaultConfig()
	// An explicit version in the document replaces this one; a document
	// without one predates versioning.
	cfg.Version = 1

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode TOML: unknown key %q", undecoded[0].String())
		}
	case "json":
		if err := schemavalidation.ValidateJSON(schemavalidation.Config, data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %q", format)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Logging.FilePath)}
	if c.Storage.Type == "sqlite" {
		dirs = append(dirs, filepath.Dir(c.Storage.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SoftkeysDir returns the base data directory.
// Uses platform-specific paths or the SOFTKEYS_DATA_DIR environment
// override, which app group containers set on iOS.
func SoftkeysDir() string {
	if envDir := os.Getenv("SOFTKEYS_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with SOFTKEYS_ and use underscores.
// Unparsable boolean values are ignored.
func (c *Config) ApplyEnvOverrides() {
	// Keyboard overrides
	if v := os.Getenv("SOFTKEYS_LOCALES"); v != "" {
		var locales []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				locales = append(locales, l)
			}
		}
		c.Keyboard.Locales = locales
	}
	if v := os.Getenv("SOFTKEYS_ACTION_TABLE"); v != "" {
		c.Keyboard.ActionTablePath = v
	}

	// Feedback overrides
	if v, err := strconv.ParseBool(os.Getenv("SOFTKEYS_AUDIO")); err == nil {
		c.Feedback.Audio = v
	}
	if v, err := strconv.ParseBool(os.Getenv("SOFTKEYS_HAPTIC")); err == nil {
		c.Feedback.Haptic = v
	}

	// Storage overrides
	if v := os.Getenv("SOFTKEYS_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}

	// Logging overrides
	if v := os.Getenv("SOFTKEYS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SOFTKEYS_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	// Deep copy slices
	clone.Keyboard.Locales = append([]string{}, c.Keyboard.Locales...)
	clone.Autocomplete.Words = append([]string{}, c.Autocomplete.Words...)

	return &clone
}

// LoggerConfig converts the logging section for logging.New.
func (l LoggingConfig) LoggerConfig() (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = l.Output
	if l.FilePath != "" {
		cfg.FilePath = expandPath(l.FilePath)
	}
	cfg.MaxSize = int64(l.MaxSizeMB)
	cfg.MaxBackups = l.MaxBackups
	cfg.MaxAge = l.MaxAgeDays
	cfg.Compress = l.Compress
	return cfg, nil
}
