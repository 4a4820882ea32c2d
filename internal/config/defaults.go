package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "softkeys"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS, iOS: ~/Library/Application Support/softkeys/
//   - Linux:      ~/.local/share/softkeys/
//   - Windows:    %APPDATA%\softkeys\
//
// Falls back to ~/.softkeys if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin", "ios":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "linux", "android":
		return linuxDataDir()
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS, iOS: ~/Library/Application Support/softkeys/
//   - Linux:      ~/.config/softkeys/
//   - Windows:    %APPDATA%\softkeys\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux", "android":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, appName)
		}
		return filepath.Join(homeDir(), ".config", appName)
	default:
		// Config and data share a directory elsewhere
		return PlatformDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS, iOS: ~/Library/Logs/softkeys/
//   - Linux:      ~/.local/share/softkeys/logs/
//   - Windows:    %LOCALAPPDATA%\softkeys\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin", "ios":
		return filepath.Join(homeDir(), "Library", "Logs", appName)
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName, "logs")
		}
		return filepath.Join(homeDir(), "AppData", "Local", appName, "logs")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

// Linux paths follow the XDG Base Directory Specification.
func linuxDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName)
	}
	return filepath.Join(homeDir(), ".local", "share", appName)
}

func windowsDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName)
	}
	return filepath.Join(homeDir(), "AppData", "Roaming", appName)
}

func fallbackDataDir() string {
	return filepath.Join(homeDir(), "."+appName)
}

// DefaultPaths returns all default paths for a platform.
type DefaultPaths struct {
	DataDir   string
	ConfigDir string
	LogDir    string

	// Specific file paths
	ConfigFile      string
	DatabaseFile    string
	ActionTableFile string
	CrashDir        string
}

// GetDefaultPaths returns all default paths for the current platform.
func GetDefaultPaths() *DefaultPaths {
	dataDir := SoftkeysDir()
	configDir := PlatformConfigDir()

	return &DefaultPaths{
		DataDir:   dataDir,
		ConfigDir: configDir,
		LogDir:    PlatformLogDir(),

		ConfigFile:      filepath.Join(configDir, "config.toml"),
		DatabaseFile:    filepath.Join(dataDir, "softkeys.db"),
		ActionTableFile: filepath.Join(configDir, "actions.json"),
		CrashDir:        filepath.Join(dataDir, "crashes"),
	}
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	paths := GetDefaultPaths()

	// Search order:
	// 1. Current directory
	// 2. Config directory
	// 3. Data directory
	searchDirs := []string{
		".",
		paths.ConfigDir,
		paths.DataDir,
	}

	for _, dir := range searchDirs {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}
