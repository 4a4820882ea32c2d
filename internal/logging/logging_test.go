package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		parsed, err := ParseLevel(LevelString(level))
		if err != nil {
			t.Fatalf("round trip %v: %v", level, err)
		}
		if parsed != level {
			t.Errorf("expected %v, got %v", level, parsed)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if cfg.Component != "softkeys" {
		t.Errorf("expected component softkeys, got %s", cfg.Component)
	}
	if !strings.HasSuffix(cfg.FilePath, "softkeys.log") {
		t.Errorf("unexpected default log path %s", cfg.FilePath)
	}
}

func TestShouldRedact(t *testing.T) {
	tests := []struct {
		key      string
		expected bool
	}{
		{"text", true},
		{"TEXT", true},
		{"word", true},
		{"current_word", true},
		{"document", true},
		{"suggestion", true},
		{"context_before", true},
		{"password", true},
		{"action", false},
		{"gesture", false},
		{"keyboard_type", false},
		{"sid", false},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			if got := shouldRedact(test.key); got != test.expected {
				t.Errorf("shouldRedact(%q) = %v, expected %v", test.key, got, test.expected)
			}
		})
	}
}

func TestJSONOutputRedactsText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: LevelDebug, Format: FormatJSON, Component: "test"}, &buf)

	logger.WithSession("s-1").Info("inserted", "text", "hunter2", "gesture", "tap")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if entry["text"] != "[REDACTED]" {
		t.Errorf("text not redacted: %v", entry["text"])
	}
	if entry["gesture"] != "tap" {
		t.Errorf("gesture = %v", entry["gesture"])
	}
	if entry["sid"] != "s-1" {
		t.Errorf("sid = %v", entry["sid"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: LevelWarn}, &buf)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not logged: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing")
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestFileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "softkeys.log")

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("to file")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}

// =============================================================================
// Rotation
// =============================================================================

func TestFileRotatorRotatesOnSize(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer rotator.Close()

	line := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 2; i++ {
		if _, err := rotator.Write(line); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	rotator.wg.Wait()

	files, err := rotator.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected current file and one backup, got %v", files)
	}
}

func TestFileRotatorRotatesDaily(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSize: 10})
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer rotator.Close()

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	rotator.now = func() time.Time { return day }
	rotator.opened = day

	rotator.Write([]byte("first\n"))
	day = day.Add(2 * time.Minute)
	rotator.Write([]byte("second\n"))
	rotator.wg.Wait()

	files, _ := rotator.Files()
	if len(files) != 2 {
		t.Errorf("expected daily rotation, got %v", files)
	}

	data, _ := os.ReadFile(logPath)
	if string(data) != "second\n" {
		t.Errorf("current file = %q", data)
	}
}

func TestFileRotatorPrunesBackups(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")
	for _, name := range []string{"test-1.log", "test-2.log", "test-3.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSize: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer rotator.Close()

	rotator.prune()
	files, _ := rotator.Files()
	if len(files) != 2 {
		t.Errorf("expected one backup kept, got %v", files)
	}
}

// =============================================================================
// Crash handling
// =============================================================================

func TestCrashHandlerRecover(t *testing.T) {
	dir := t.TempDir()
	var seen []CrashReport
	h := NewCrashHandler(CrashHandlerConfig{
		CrashDir: dir,
		Version:  "1.0.0",
		Logger:   Discard().Logger,
		OnCrash:  func(r CrashReport) { seen = append(seen, r) },
	})
	h.SetSessionID("s-9")

	if h.Recover("ok", func() {}) {
		t.Error("Recover reported a panic for a normal return")
	}
	if !h.Recover("handle", func() { panic("boom") }) {
		t.Fatal("Recover did not report the panic")
	}

	if len(seen) != 1 {
		t.Fatalf("expected one OnCrash call, got %d", len(seen))
	}

	reports, err := h.Reports()
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	r := reports[0]
	if r.PanicValue != "boom" || r.Operation != "handle" || r.SessionID != "s-9" || r.Version != "1.0.0" {
		t.Errorf("unexpected report %+v", r)
	}
	if r.StackTrace == "" {
		t.Error("missing stack trace")
	}
}

func TestCrashHandlerPrune(t *testing.T) {
	dir := t.TempDir()
	h := NewCrashHandler(CrashHandlerConfig{CrashDir: dir, Logger: Discard().Logger})
	h.HandlePanic("op", "old", nil)

	h.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if err := h.Prune(24 * time.Hour); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	reports, _ := h.Reports()
	if len(reports) != 0 {
		t.Errorf("expected pruned reports, got %d", len(reports))
	}
}

func TestCrashHandlerDefaultDir(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" || runtime.GOOS == "windows" {
		t.Skip("default crash dir follows XDG_STATE_HOME only on unix")
	}
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	h := NewCrashHandler(CrashHandlerConfig{Logger: Discard().Logger})
	h.SetSessionID("s-1")
	if !h.Recover("op", func() { panic(42) }) {
		t.Error("expected panic to be reported")
	}

	files, err := filepath.Glob(filepath.Join(DefaultCrashDir(), "crash-*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("crash files = %v, %v", files, err)
	}
	reports, err := h.Reports()
	if err != nil || len(reports) != 1 {
		t.Fatalf("Reports() = %v, %v", reports, err)
	}
	if reports[0].SessionID != "s-1" {
		t.Errorf("expected session s-1, got %q", reports[0].SessionID)
	}
}
