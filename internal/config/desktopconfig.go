// Package config provides configuration management for LISE Desktop.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Launch modes for the console's agent startup hook.
const (
	// LaunchModeLaunch locates and spawns the agent binary on startup.
	LaunchModeLaunch = "launch"

	// LaunchModeAttach skips the launch entirely and assumes an agent is
	// already serving on the local endpoint.
	LaunchModeAttach = "attach"
)

// DesktopConfig represents the console configuration.
//
// Config file location:
//   - Windows: %APPDATA%\LISE\desktop.ini
//   - Unix: ~/.config/lise/desktop.ini
//
// INI format:
//
//	[launcher]
//	launch_mode = launch
//	agent_path =
//	dev_unnest_depth = 3
//	dev_agent_subdir = agent/dist
//
//	[notifications]
//	enabled = true
//	show_launch_failure = true
type DesktopConfig struct {
	Launcher LauncherConfig

	Notifications DesktopNotificationConfig
}

// LauncherConfig controls how the console starts (or attaches to) the agent.
type LauncherConfig struct {
	// LaunchMode selects the startup variant: "launch" spawns the agent,
	// "attach" assumes one is already running on the local endpoint.
	// Default: "launch"
	LaunchMode string `ini:"launch_mode"`

	// AgentPath overrides path resolution entirely when set. Empty means
	// derive the path from the executable location and build mode.
	AgentPath string `ini:"agent_path"`

	// DevUnnestDepth is the number of parent directories to walk up from
	// the executable's directory in dev builds before descending to the
	// agent binary. The default of 3 undoes the dev build-output nesting;
	// change it if the build layout changes rather than relying on a
	// hard-coded walk. Ignored in release builds.
	// Minimum: 0, Maximum: 8, Default: 3
	DevUnnestDepth int `ini:"dev_unnest_depth"`

	// DevAgentSubdir is the relative path from the walked-up root to the
	// directory holding the agent binary in dev layouts.
	// Default: "agent/dist"
	DevAgentSubdir string `ini:"dev_agent_subdir"`
}

// DesktopNotificationConfig controls console desktop notifications.
type DesktopNotificationConfig struct {
	// Enabled turns all console notifications on or off.
	// Default: true
	Enabled bool `ini:"enabled"`

	// ShowLaunchFailure posts a desktop notification when the agent
	// launch hook fails. Default: true
	ShowLaunchFailure bool `ini:"show_launch_failure"`
}

// DesktopConfig validation errors
var (
	ErrDesktopInvalidLaunchMode  = errors.New("launch_mode must be \"launch\" or \"attach\"")
	ErrDesktopInvalidUnnestDepth = errors.New("dev_unnest_depth must be between 0 and 8")
	ErrDesktopInvalidAgentSubdir = errors.New("dev_agent_subdir must be a relative path")

	errNoConfigRoot = errors.New("neither APPDATA nor USERPROFILE environment variable set")
)

// DefaultDesktopConfigPath returns the default path for the desktop.ini file.
func DefaultDesktopConfigPath() (string, error) {
	configDir, err := ConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "desktop.ini"), nil
}

// NewDesktopConfig creates a new DesktopConfig with default values.
func NewDesktopConfig() *DesktopConfig {
	return &DesktopConfig{
		Launcher: LauncherConfig{
			LaunchMode:     LaunchModeLaunch,
			AgentPath:      "",
			DevUnnestDepth: 3,
			DevAgentSubdir: "agent/dist",
		},
		Notifications: DesktopNotificationConfig{
			Enabled:           true,
			ShowLaunchFailure: true,
		},
	}
}

// LoadDesktopConfig loads configuration from the desktop.ini file.
// If path is empty, uses the default path.
// If the file doesn't exist, returns a config with default values and no error.
func LoadDesktopConfig(path string) (*DesktopConfig, error) {
	cfg := NewDesktopConfig()

	if path == "" {
		var err error
		path, err = DefaultDesktopConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load desktop.ini: %w", err)
	}

	launcherSection := iniFile.Section("launcher")
	cfg.Launcher.LaunchMode = launcherSection.Key("launch_mode").MustString(LaunchModeLaunch)
	cfg.Launcher.AgentPath = launcherSection.Key("agent_path").String()
	cfg.Launcher.DevUnnestDepth = launcherSection.Key("dev_unnest_depth").MustInt(3)
	cfg.Launcher.DevAgentSubdir = launcherSection.Key("dev_agent_subdir").MustString("agent/dist")

	notifySection := iniFile.Section("notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)
	cfg.Notifications.ShowLaunchFailure = notifySection.Key("show_launch_failure").MustBool(true)

	return cfg, nil
}

// SaveDesktopConfig saves configuration to the desktop.ini file.
// If path is empty, uses the default path.
// Creates parent directories if they don't exist.
func SaveDesktopConfig(cfg *DesktopConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultDesktopConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	launcherSection, err := iniFile.NewSection("launcher")
	if err != nil {
		return fmt.Errorf("failed to create launcher section: %w", err)
	}
	launcherSection.Key("launch_mode").SetValue(cfg.Launcher.LaunchMode)
	launcherSection.Key("agent_path").SetValue(cfg.Launcher.AgentPath)
	launcherSection.Key("dev_unnest_depth").SetValue(fmt.Sprintf("%d", cfg.Launcher.DevUnnestDepth))
	launcherSection.Key("dev_agent_subdir").SetValue(cfg.Launcher.DevAgentSubdir)

	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Notifications.Enabled))
	notifySection.Key("show_launch_failure").SetValue(fmt.Sprintf("%t", cfg.Notifications.ShowLaunchFailure))

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the desktop configuration is valid.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *DesktopConfig) Validate() error {
	switch cfg.Launcher.LaunchMode {
	case LaunchModeLaunch, LaunchModeAttach:
	default:
		return ErrDesktopInvalidLaunchMode
	}
	if cfg.Launcher.DevUnnestDepth < 0 || cfg.Launcher.DevUnnestDepth > 8 {
		return ErrDesktopInvalidUnnestDepth
	}
	subdir := cfg.Launcher.DevAgentSubdir
	if strings.TrimSpace(subdir) == "" || filepath.IsAbs(subdir) || strings.HasPrefix(subdir, "/") {
		return ErrDesktopInvalidAgentSubdir
	}
	return nil
}
