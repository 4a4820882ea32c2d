// keyboardctl is the command line companion of the softkeys keyboard core.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"softkeys/internal/action"
	"softkeys/internal/autocomplete"
	"softkeys/internal/config"
	"softkeys/internal/feedback"
	"softkeys/internal/ime"
	"softkeys/internal/keyboard"
	"softkeys/internal/logging"
	"softkeys/internal/metrics"
	"softkeys/internal/store"
)

var (
	configPath = flag.String("config", "", "path to config file")
	jsonOutput = flag.Bool("json", false, "print results as JSON")
	persist    = flag.Bool("persist", false, "replay against the configured store instead of memory")
	verbose    = flag.Bool("v", false, "log debug output to stderr")
	showStats  = flag.Bool("metrics", false, "print session metrics after replay")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	level := logging.LevelWarn
	if *verbose {
		level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewWithWriter(&logging.Config{
		Level:     level,
		Component: "keyboardctl",
	}, os.Stderr))

	cmd := flag.Arg(0)

	switch cmd {
	case "replay":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: keyboardctl replay <script>")
			os.Exit(1)
		}
		cmdReplay(flag.Arg(1))
	case "config":
		cmdConfig()
	case "validate":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: keyboardctl validate <file>")
			os.Exit(1)
		}
		cmdValidate(flag.Arg(1))
	case "emoji":
		cmdEmoji(flag.Args()[1:])
	case "lexicon":
		cmdLexicon(flag.Args()[1:])
	case "feedback":
		if flag.NArg() < 3 || flag.Arg(1) != "export" {
			fmt.Fprintln(os.Stderr, "Usage: keyboardctl feedback export <dir>")
			os.Exit(1)
		}
		cmdFeedbackExport(flag.Arg(2))
	case "status":
		cmdStatus()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `keyboardctl - Command line utility for softkeys

Usage: keyboardctl [options] <command> [args]

Commands:
  replay <script>               Replay a gesture script and print the result
  config                        Print the effective configuration as TOML
  validate <file>               Validate a config file or an action table
  emoji [reset]                 Show (or forget) frequently used emojis
  lexicon import <file> [lang]  Import words, one per line, optional frequency
  lexicon stats                 Show lexicon statistics
  feedback export <dir>         Write the key clicks as WAV files
  status                        Show storage status
  help                          Show this help message

Options:
  -config <path>  Path to config file (default: platform config dir)
  -json           Print results as JSON
  -persist        Replay against the configured store
  -metrics        Print session metrics after replay
  -v              Verbose logging`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	return cfg
}

func openStore(cfg *config.Config) *store.Store {
	path := cfg.Storage.Path
	if cfg.Storage.Type == "memory" {
		path = store.Memory
	}
	st, err := store.OpenWithOptions(path, store.Options{
		BusyTimeout: time.Duration(cfg.Storage.BusyTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		fatalf("opening store: %v", err)
	}
	return st
}

func cmdReplay(path string) {
	cfg := loadConfig()
	if !*persist {
		cfg.Storage.Type = "memory"
	}

	f, err := os.Open(path)
	if err != nil {
		fatalf("%v", err)
	}
	defer f.Close()

	steps, err := ParseScript(f)
	if err != nil {
		fatalf("%v", err)
	}

	m := metrics.NewKeyboardMetrics(metrics.NewRegistry("softkeys", ""))
	session, err := ime.NewSession(cfg, ime.Options{Metrics: m})
	if err != nil {
		fatalf("starting session: %v", err)
	}
	defer session.Close()

	if err := Run(session, steps); err != nil {
		fatalf("%v", err)
	}

	if *showStats {
		defer m.Registry().WritePrometheus(os.Stdout)
	}

	state := session.State()
	if *jsonOutput {
		fmt.Println(prettyJSON(state))
		return
	}
	fmt.Printf("Text:          %q\n", state.TextBefore+state.TextAfter)
	fmt.Printf("Cursor:        %d\n", uniseg.GraphemeClusterCount(state.TextBefore))
	fmt.Printf("Keyboard type: %s\n", state.KeyboardType)
	fmt.Printf("Locale:        %s\n", state.Locale)
	if len(state.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for i, s := range state.Suggestions {
			fmt.Printf("  %d. %s\n", i, s.Title)
		}
	}
	if state.LastError != "" {
		fmt.Printf("Autocomplete error: %s\n", state.LastError)
	}
}

func cmdConfig() {
	cfg := loadConfig()
	format := "toml"
	if *jsonOutput {
		format = "json"
	}
	data, err := config.Encode(cfg, format)
	if err != nil {
		fatalf("encoding config: %v", err)
	}
	os.Stdout.Write(data)
}

// cmdValidate checks a config file, or an action table when the file is
// JSON with an "overrides" member.
func cmdValidate(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("%v", err)
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) == nil {
		if _, ok := fields["overrides"]; ok {
			o, err := action.ParseOverrides(data, nil)
			if err != nil {
				fatalf("invalid action table: %v", err)
			}
			fmt.Printf("Action table OK (%d overrides)\n", o.Len())
			return
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fatalf("invalid config: %v", err)
	}
	for _, w := range config.Check(cfg).Warnings() {
		fmt.Printf("Warning: %s: %s\n", w.Field, w.Message)
	}
	fmt.Printf("Config OK (version %d)\n", cfg.Version)
}

func cmdEmoji(args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	if len(args) > 0 && args[0] == "reset" {
		if err := st.ResetEmojis(); err != nil {
			fatalf("%v", err)
		}
		fmt.Println("Emoji usage cleared")
		return
	}

	top, err := st.TopEmojis(cfg.Emoji.MaxCount)
	if err != nil {
		fatalf("%v", err)
	}
	if *jsonOutput {
		fmt.Println(prettyJSON(top))
		return
	}
	if len(top) == 0 {
		fmt.Println("No emojis recorded")
		return
	}
	for _, u := range top {
		fmt.Printf("%s  %5d  %s\n", u.Emoji, u.Count, u.LastUsed().Format(time.RFC3339))
	}
}

func cmdLexicon(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: keyboardctl lexicon <import|stats> ...")
		os.Exit(1)
	}
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	switch args[0] {
	case "import":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: keyboardctl lexicon import <file> [lang]")
			os.Exit(1)
		}
		locale := cfg.Keyboard.Locales[0]
		if len(args) >= 3 {
			locale = args[2]
		}
		tags, err := keyboard.ParseLocales([]string{locale})
		if err != nil {
			fatalf("%v", err)
		}
		words, err := readWordList(args[1], autocomplete.LocaleKey(tags[0]))
		if err != nil {
			fatalf("%v", err)
		}
		n, err := st.AddWords(words)
		if err != nil {
			fatalf("importing words: %v", err)
		}
		fmt.Printf("Imported %d words into %s\n", n, autocomplete.LocaleKey(tags[0]))
	case "stats":
		stats, err := st.Stats()
		if err != nil {
			fatalf("%v", err)
		}
		if *jsonOutput {
			fmt.Println(prettyJSON(stats))
			return
		}
		fmt.Printf("Words:         %d\n", stats.Words)
		fmt.Printf("Learned words: %d\n", stats.LearnedWords)
		fmt.Printf("Locales:       %s\n", strings.Join(stats.Locales, ", "))
	default:
		fatalf("unknown lexicon command: %s", args[0])
	}
}

// readWordList reads one word per line, optionally followed by whitespace
// and a frequency. Blank lines and lines starting with # are skipped.
func readWordList(path, locale string) ([]store.Word, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []store.Word
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		w := store.Word{Locale: locale, Text: fields[0], Frequency: 1}
		if len(fields) > 1 {
			freq, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid frequency %q", path, lineNo, fields[1])
			}
			w.Frequency = freq
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func cmdFeedbackExport(dir string) {
	cfg := loadConfig()
	engine := feedback.NewEngine(feedback.Config{
		AudioEnabled: true,
		Volume:       cfg.Feedback.Volume,
		SampleRate:   cfg.Feedback.SampleRate,
	}, nil, nil, nil)

	if err := os.MkdirAll(dir, 0755); err != nil {
		fatalf("%v", err)
	}
	for _, sound := range feedback.Sounds() {
		path := filepath.Join(dir, sound.String()+".wav")
		f, err := os.Create(path)
		if err != nil {
			fatalf("%v", err)
		}
		if err := engine.WriteWAV(f, sound); err != nil {
			f.Close()
			fatalf("writing %s: %v", path, err)
		}
		if err := f.Close(); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}

func cmdStatus() {
	cfg := loadConfig()

	fmt.Println("=== softkeys Status ===")
	fmt.Println()
	fmt.Printf("Config:  %s\n", configFile())
	fmt.Printf("Locales: %s\n", strings.Join(cfg.Keyboard.Locales, ", "))
	fmt.Println()

	fmt.Println("Storage:")
	if cfg.Storage.Type == "memory" {
		fmt.Println("  In-memory (nothing persisted)")
		return
	}
	if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		fmt.Println("  No database found")
		return
	}

	st := openStore(cfg)
	defer st.Close()

	fmt.Printf("  Path: %s\n", st.Path())
	if info, err := os.Stat(st.Path()); err == nil {
		fmt.Printf("  Size: %s\n", formatBytes(info.Size()))
	}
	if status, err := store.GetMigrationStatus(st.DB()); err == nil {
		fmt.Printf("  Schema: v%d (latest v%d)\n", status.CurrentVersion, status.LatestVersion)
	}
	if err := st.Check(); err != nil {
		fmt.Printf("  Integrity: FAILED (%v)\n", err)
	} else {
		fmt.Println("  Integrity: OK")
	}

	stats, err := st.Stats()
	if err != nil {
		fmt.Printf("  Error reading stats: %v\n", err)
		return
	}
	fmt.Printf("  Emojis: %d (%d uses)\n", stats.Emojis, stats.EmojiUses)
	fmt.Printf("  Words:  %d (%d learned)\n", stats.Words, stats.LearnedWords)
}

// Helper functions

func configFile() string {
	if *configPath != "" {
		return *configPath
	}
	return config.ConfigPath()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func prettyJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}
