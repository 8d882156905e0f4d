package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDesktopConfig(t *testing.T) {
	cfg := NewDesktopConfig()

	// Check defaults
	if cfg.Launcher.LaunchMode != LaunchModeLaunch {
		t.Errorf("Expected LaunchMode=%q, got %q", LaunchModeLaunch, cfg.Launcher.LaunchMode)
	}
	if cfg.Launcher.DevUnnestDepth != 3 {
		t.Errorf("Expected DevUnnestDepth=3, got %d", cfg.Launcher.DevUnnestDepth)
	}
	if cfg.Launcher.DevAgentSubdir != "agent/dist" {
		t.Errorf("Expected DevAgentSubdir=agent/dist, got %s", cfg.Launcher.DevAgentSubdir)
	}
	if cfg.Launcher.AgentPath != "" {
		t.Errorf("Expected empty AgentPath, got %s", cfg.Launcher.AgentPath)
	}
	if !cfg.Notifications.Enabled {
		t.Error("Expected Notifications.Enabled=true")
	}
}

func TestDesktopConfigLoadSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "desktop.ini")

	cfg := NewDesktopConfig()
	cfg.Launcher.LaunchMode = LaunchModeAttach
	cfg.Launcher.AgentPath = "/opt/lise/lise-agent"
	cfg.Launcher.DevUnnestDepth = 2
	cfg.Launcher.DevAgentSubdir = "build/agent"
	cfg.Notifications.Enabled = false
	cfg.Notifications.ShowLaunchFailure = false

	if err := SaveDesktopConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadDesktopConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Launcher.LaunchMode != cfg.Launcher.LaunchMode {
		t.Errorf("LaunchMode mismatch: expected %q, got %q", cfg.Launcher.LaunchMode, loaded.Launcher.LaunchMode)
	}
	if loaded.Launcher.AgentPath != cfg.Launcher.AgentPath {
		t.Errorf("AgentPath mismatch: expected %q, got %q", cfg.Launcher.AgentPath, loaded.Launcher.AgentPath)
	}
	if loaded.Launcher.DevUnnestDepth != cfg.Launcher.DevUnnestDepth {
		t.Errorf("DevUnnestDepth mismatch: expected %d, got %d", cfg.Launcher.DevUnnestDepth, loaded.Launcher.DevUnnestDepth)
	}
	if loaded.Launcher.DevAgentSubdir != cfg.Launcher.DevAgentSubdir {
		t.Errorf("DevAgentSubdir mismatch: expected %q, got %q", cfg.Launcher.DevAgentSubdir, loaded.Launcher.DevAgentSubdir)
	}
	if loaded.Notifications.Enabled != cfg.Notifications.Enabled {
		t.Errorf("Notifications.Enabled mismatch: expected %v, got %v", cfg.Notifications.Enabled, loaded.Notifications.Enabled)
	}
	if loaded.Notifications.ShowLaunchFailure != cfg.Notifications.ShowLaunchFailure {
		t.Errorf("ShowLaunchFailure mismatch: expected %v, got %v", cfg.Notifications.ShowLaunchFailure, loaded.Notifications.ShowLaunchFailure)
	}
}

func TestDesktopConfigLoadMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nope.ini")

	cfg, err := LoadDesktopConfig(configPath)
	if err != nil {
		t.Fatalf("Loading a missing file should return defaults, got error: %v", err)
	}
	if cfg.Launcher.LaunchMode != LaunchModeLaunch {
		t.Errorf("Expected default LaunchMode, got %q", cfg.Launcher.LaunchMode)
	}
	if cfg.Launcher.DevUnnestDepth != 3 {
		t.Errorf("Expected default DevUnnestDepth, got %d", cfg.Launcher.DevUnnestDepth)
	}
}

func TestDesktopConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DesktopConfig)
		wantErr error
	}{
		{
			name:    "defaults are valid",
			mutate:  func(cfg *DesktopConfig) {},
			wantErr: nil,
		},
		{
			name:    "attach mode is valid",
			mutate:  func(cfg *DesktopConfig) { cfg.Launcher.LaunchMode = LaunchModeAttach },
			wantErr: nil,
		},
		{
			name:    "unknown launch mode",
			mutate:  func(cfg *DesktopConfig) { cfg.Launcher.LaunchMode = "supervise" },
			wantErr: ErrDesktopInvalidLaunchMode,
		},
		{
			name:    "negative unnest depth",
			mutate:  func(cfg *DesktopConfig) { cfg.Launcher.DevUnnestDepth = -1 },
			wantErr: ErrDesktopInvalidUnnestDepth,
		},
		{
			name:    "excessive unnest depth",
			mutate:  func(cfg *DesktopConfig) { cfg.Launcher.DevUnnestDepth = 9 },
			wantErr: ErrDesktopInvalidUnnestDepth,
		},
		{
			name:    "absolute agent subdir",
			mutate:  func(cfg *DesktopConfig) { cfg.Launcher.DevAgentSubdir = "/abs/agent" },
			wantErr: ErrDesktopInvalidAgentSubdir,
		},
		{
			name:    "empty agent subdir",
			mutate:  func(cfg *DesktopConfig) { cfg.Launcher.DevAgentSubdir = "  " },
			wantErr: ErrDesktopInvalidAgentSubdir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDesktopConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
