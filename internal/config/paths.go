// Package config provides configuration management for LISE Desktop.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirectory returns the per-user configuration directory shared by the
// console, the agent, and the tray.
//
// Locations:
//   - Windows: %APPDATA%\LISE
//   - Unix: ~/.config/lise (or $XDG_CONFIG_HOME/lise)
func ConfigDirectory() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errNoConfigRoot
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		return filepath.Join(appData, "LISE"), nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", errNoConfigRoot
		}
		return filepath.Join(home, ".config", "lise"), nil
	}
	return filepath.Join(configDir, "lise"), nil
}

// LogDirectory returns the unified log directory for all LISE Desktop logs.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\LISE\logs
//   - Unix: ~/.config/lise/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "lise-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "LISE", "logs")
	}

	configDir, err := ConfigDirectory()
	if err != nil {
		return filepath.Join(os.TempDir(), "lise-logs")
	}
	return filepath.Join(configDir, "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// DefaultWorkDirectory returns the agent's default work directory, where the
// temp compose file for the running scenario is written.
func DefaultWorkDirectory() string {
	configDir, err := ConfigDirectory()
	if err != nil {
		return filepath.Join(os.TempDir(), "lise-agent")
	}
	return filepath.Join(configDir, "work")
}
