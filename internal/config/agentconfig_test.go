package config

import (
	"path/filepath"
	"testing"
)

func TestNewAgentConfig(t *testing.T) {
	cfg := NewAgentConfig()

	// Check defaults
	if cfg.Agent.ListenAddr != "0.0.0.0:8000" {
		t.Errorf("Expected ListenAddr=0.0.0.0:8000, got %s", cfg.Agent.ListenAddr)
	}
	if cfg.Agent.ComposeCommand != "docker-compose" {
		t.Errorf("Expected ComposeCommand=docker-compose, got %s", cfg.Agent.ComposeCommand)
	}
	if !cfg.Display.Enabled {
		t.Error("Expected Display.Enabled=true")
	}
	if cfg.Display.ListenPort != 8081 {
		t.Errorf("Expected Display.ListenPort=8081, got %d", cfg.Display.ListenPort)
	}
	if cfg.Display.WebsockifyPath != "websockify" {
		t.Errorf("Expected WebsockifyPath=websockify, got %s", cfg.Display.WebsockifyPath)
	}
	if cfg.Proxy.Mode != "no-proxy" {
		t.Errorf("Expected Proxy.Mode=no-proxy, got %s", cfg.Proxy.Mode)
	}
	if !cfg.Notifications.Enabled {
		t.Error("Expected Notifications.Enabled=true")
	}
}

func TestAgentConfigLoadSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agent.ini")

	cfg := NewAgentConfig()
	cfg.Agent.ListenAddr = "127.0.0.1:9000"
	cfg.Agent.DisplayName = "blue-team-01"
	cfg.Agent.WorkDir = "/var/lib/lise"
	cfg.Agent.ComposeCommand = "docker compose"
	cfg.Display.Enabled = false
	cfg.Display.ListenPort = 9081
	cfg.Display.NoVNCDir = "/usr/share/novnc"
	cfg.Proxy.Mode = "basic"
	cfg.Proxy.Host = "proxy.corp"
	cfg.Proxy.Port = 3128
	cfg.Proxy.User = "svc-lise"
	cfg.Proxy.NoProxy = "127.0.0.1,.corp"
	cfg.Notifications.ShowScenarioEvents = false

	if err := SaveAgentConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadAgentConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Agent.ListenAddr != cfg.Agent.ListenAddr {
		t.Errorf("ListenAddr mismatch: expected %q, got %q", cfg.Agent.ListenAddr, loaded.Agent.ListenAddr)
	}
	if loaded.Agent.DisplayName != cfg.Agent.DisplayName {
		t.Errorf("DisplayName mismatch: expected %q, got %q", cfg.Agent.DisplayName, loaded.Agent.DisplayName)
	}
	if loaded.Agent.ComposeCommand != cfg.Agent.ComposeCommand {
		t.Errorf("ComposeCommand mismatch: expected %q, got %q", cfg.Agent.ComposeCommand, loaded.Agent.ComposeCommand)
	}
	if loaded.Display.Enabled != cfg.Display.Enabled {
		t.Errorf("Display.Enabled mismatch: expected %v, got %v", cfg.Display.Enabled, loaded.Display.Enabled)
	}
	if loaded.Display.ListenPort != cfg.Display.ListenPort {
		t.Errorf("Display.ListenPort mismatch: expected %d, got %d", cfg.Display.ListenPort, loaded.Display.ListenPort)
	}
	if loaded.Proxy.Mode != cfg.Proxy.Mode {
		t.Errorf("Proxy.Mode mismatch: expected %q, got %q", cfg.Proxy.Mode, loaded.Proxy.Mode)
	}
	if loaded.Proxy.Host != cfg.Proxy.Host {
		t.Errorf("Proxy.Host mismatch: expected %q, got %q", cfg.Proxy.Host, loaded.Proxy.Host)
	}
	if loaded.Proxy.Port != cfg.Proxy.Port {
		t.Errorf("Proxy.Port mismatch: expected %d, got %d", cfg.Proxy.Port, loaded.Proxy.Port)
	}
	if loaded.Notifications.ShowScenarioEvents != cfg.Notifications.ShowScenarioEvents {
		t.Errorf("ShowScenarioEvents mismatch: expected %v, got %v",
			cfg.Notifications.ShowScenarioEvents, loaded.Notifications.ShowScenarioEvents)
	}
}

func TestAgentConfigLoadMissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadAgentConfig(filepath.Join(tmpDir, "missing.ini"))
	if err != nil {
		t.Fatalf("Loading a missing file should return defaults, got error: %v", err)
	}
	if cfg.Agent.ListenAddr != "0.0.0.0:8000" {
		t.Errorf("Expected default ListenAddr, got %q", cfg.Agent.ListenAddr)
	}
}

func TestAgentConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AgentConfig)
		wantErr error
	}{
		{
			name:    "defaults are valid",
			mutate:  func(cfg *AgentConfig) {},
			wantErr: nil,
		},
		{
			name:    "bad listen addr",
			mutate:  func(cfg *AgentConfig) { cfg.Agent.ListenAddr = "8000" },
			wantErr: ErrAgentInvalidListenAddr,
		},
		{
			name:    "empty compose command",
			mutate:  func(cfg *AgentConfig) { cfg.Agent.ComposeCommand = " " },
			wantErr: ErrAgentMissingCompose,
		},
		{
			name:    "display port too low",
			mutate:  func(cfg *AgentConfig) { cfg.Display.ListenPort = 0 },
			wantErr: ErrAgentInvalidDisplayPort,
		},
		{
			name:    "display port too high",
			mutate:  func(cfg *AgentConfig) { cfg.Display.ListenPort = 70000 },
			wantErr: ErrAgentInvalidDisplayPort,
		},
		{
			name:    "unknown proxy mode",
			mutate:  func(cfg *AgentConfig) { cfg.Proxy.Mode = "socks5" },
			wantErr: ErrAgentInvalidProxyMode,
		},
		{
			name:    "ntlm proxy mode is valid",
			mutate:  func(cfg *AgentConfig) { cfg.Proxy.Mode = "ntlm" },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewAgentConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveDisplayName(t *testing.T) {
	cfg := NewAgentConfig()

	cfg.Agent.DisplayName = "red-cell-3"
	if got := cfg.ResolveDisplayName(); got != "red-cell-3" {
		t.Errorf("ResolveDisplayName() = %q, want %q", got, "red-cell-3")
	}

	// Unset falls back to a nonempty machine-derived name
	cfg.Agent.DisplayName = ""
	if got := cfg.ResolveDisplayName(); got == "" {
		t.Error("ResolveDisplayName() returned empty string for unset display name")
	}
}
