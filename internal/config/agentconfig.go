// Package config provides configuration management for LISE Desktop.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// AgentConfig represents the agent configuration.
//
// Config file location:
//   - Windows: %APPDATA%\LISE\agent.ini
//   - Unix: ~/.config/lise/agent.ini
//
// INI format:
//
//	[agent]
//	listen_addr = 0.0.0.0:8000
//	display_name =
//	work_dir =
//	compose_command = docker-compose
//
//	[display]
//	enabled = true
//	listen_port = 8081
//	novnc_dir =
//	websockify_path = websockify
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	password =
//	no_proxy =
//	warmup = false
//
//	[notifications]
//	enabled = true
//	show_scenario_events = true
type AgentConfig struct {
	Agent AgentCoreConfig

	Display DisplayConfig

	Proxy ProxyConfig

	Notifications AgentNotificationConfig
}

// AgentCoreConfig contains core agent settings.
type AgentCoreConfig struct {
	// ListenAddr is the address the agent HTTP API binds to.
	// Default: "0.0.0.0:8000"
	ListenAddr string `ini:"listen_addr"`

	// DisplayName is the name this agent registers with the orchestrator.
	// Empty means the hostname is used.
	DisplayName string `ini:"display_name"`

	// WorkDir is where the temp compose file for the running scenario is
	// written. Empty means the default under the config directory.
	WorkDir string `ini:"work_dir"`

	// ComposeCommand is the compose binary the agent drives.
	// Default: "docker-compose"
	ComposeCommand string `ini:"compose_command"`
}

// DisplayConfig contains scenario display proxy settings.
type DisplayConfig struct {
	// Enabled turns the display proxy on or off. When off, scenario start
	// requests with a VNC port are still accepted but no proxy is spawned.
	// Default: true
	Enabled bool `ini:"enabled"`

	// ListenPort is the browser-facing port of the display proxy.
	// Default: 8081
	ListenPort int `ini:"listen_port"`

	// NoVNCDir is the web directory served by the display proxy. Empty
	// means the novnc directory beside the agent executable.
	NoVNCDir string `ini:"novnc_dir"`

	// WebsockifyPath is the websockify binary to spawn.
	// Default: "websockify" (resolved from PATH)
	WebsockifyPath string `ini:"websockify_path"`
}

// ProxyConfig contains outbound HTTP proxy settings for orchestrator calls.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic", "ntlm".
	// Default: "no-proxy"
	Mode string `ini:"mode"`

	// Host is the proxy host for basic/ntlm modes.
	Host string `ini:"host"`

	// Port is the proxy port. 0 means the default 8080.
	Port int `ini:"port"`

	// User is the proxy username for basic/ntlm modes.
	User string `ini:"user"`

	// Password is the proxy password. Usually left empty in the saved file;
	// the CLI prompts when a user is set without a password.
	Password string `ini:"password"`

	// NoProxy is a comma-separated bypass list (hosts, domains, CIDRs).
	NoProxy string `ini:"no_proxy"`

	// Warmup performs a connection warmup against the orchestrator when
	// the client is built. Default: false
	Warmup bool `ini:"warmup"`
}

// AgentNotificationConfig controls agent desktop notifications.
type AgentNotificationConfig struct {
	// Enabled turns all agent notifications on or off.
	// Default: true
	Enabled bool `ini:"enabled"`

	// ShowScenarioEvents posts a desktop notification when a scenario
	// starts, stops, or fails. Default: true
	ShowScenarioEvents bool `ini:"show_scenario_events"`
}

// AgentConfig validation errors
var (
	ErrAgentInvalidListenAddr  = errors.New("listen_addr must be host:port")
	ErrAgentInvalidDisplayPort = errors.New("display listen_port must be between 1 and 65535")
	ErrAgentInvalidProxyMode   = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrAgentMissingCompose     = errors.New("compose_command is required")
)

// DefaultAgentConfigPath returns the default path for the agent.ini file.
func DefaultAgentConfigPath() (string, error) {
	configDir, err := ConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "agent.ini"), nil
}

// NewAgentConfig creates a new AgentConfig with default values.
func NewAgentConfig() *AgentConfig {
	return &AgentConfig{
		Agent: AgentCoreConfig{
			ListenAddr:     "0.0.0.0:8000",
			DisplayName:    "",
			WorkDir:        DefaultWorkDirectory(),
			ComposeCommand: "docker-compose",
		},
		Display: DisplayConfig{
			Enabled:        true,
			ListenPort:     8081,
			NoVNCDir:       "",
			WebsockifyPath: "websockify",
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
		Notifications: AgentNotificationConfig{
			Enabled:            true,
			ShowScenarioEvents: true,
		},
	}
}

// LoadAgentConfig loads configuration from the agent.ini file.
// If path is empty, uses the default path.
// If the file doesn't exist, returns a config with default values and no error.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	cfg := NewAgentConfig()

	if path == "" {
		var err error
		path, err = DefaultAgentConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent.ini: %w", err)
	}

	agentSection := iniFile.Section("agent")
	cfg.Agent.ListenAddr = agentSection.Key("listen_addr").MustString("0.0.0.0:8000")
	cfg.Agent.DisplayName = agentSection.Key("display_name").String()
	cfg.Agent.WorkDir = agentSection.Key("work_dir").MustString(DefaultWorkDirectory())
	cfg.Agent.ComposeCommand = agentSection.Key("compose_command").MustString("docker-compose")

	displaySection := iniFile.Section("display")
	cfg.Display.Enabled = displaySection.Key("enabled").MustBool(true)
	cfg.Display.ListenPort = displaySection.Key("listen_port").MustInt(8081)
	cfg.Display.NoVNCDir = displaySection.Key("novnc_dir").String()
	cfg.Display.WebsockifyPath = displaySection.Key("websockify_path").MustString("websockify")

	proxySection := iniFile.Section("proxy")
	cfg.Proxy.Mode = proxySection.Key("mode").MustString("no-proxy")
	cfg.Proxy.Host = proxySection.Key("host").String()
	cfg.Proxy.Port = proxySection.Key("port").MustInt(0)
	cfg.Proxy.User = proxySection.Key("user").String()
	cfg.Proxy.Password = proxySection.Key("password").String()
	cfg.Proxy.NoProxy = proxySection.Key("no_proxy").String()
	cfg.Proxy.Warmup = proxySection.Key("warmup").MustBool(false)

	notifySection := iniFile.Section("notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)
	cfg.Notifications.ShowScenarioEvents = notifySection.Key("show_scenario_events").MustBool(true)

	return cfg, nil
}

// SaveAgentConfig saves configuration to the agent.ini file.
// If path is empty, uses the default path.
// Creates parent directories if they don't exist.
func SaveAgentConfig(cfg *AgentConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultAgentConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	agentSection, err := iniFile.NewSection("agent")
	if err != nil {
		return fmt.Errorf("failed to create agent section: %w", err)
	}
	agentSection.Key("listen_addr").SetValue(cfg.Agent.ListenAddr)
	agentSection.Key("display_name").SetValue(cfg.Agent.DisplayName)
	agentSection.Key("work_dir").SetValue(cfg.Agent.WorkDir)
	agentSection.Key("compose_command").SetValue(cfg.Agent.ComposeCommand)

	displaySection, err := iniFile.NewSection("display")
	if err != nil {
		return fmt.Errorf("failed to create display section: %w", err)
	}
	displaySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Display.Enabled))
	displaySection.Key("listen_port").SetValue(fmt.Sprintf("%d", cfg.Display.ListenPort))
	displaySection.Key("novnc_dir").SetValue(cfg.Display.NoVNCDir)
	displaySection.Key("websockify_path").SetValue(cfg.Display.WebsockifyPath)

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.Proxy.Mode)
	proxySection.Key("host").SetValue(cfg.Proxy.Host)
	proxySection.Key("port").SetValue(fmt.Sprintf("%d", cfg.Proxy.Port))
	proxySection.Key("user").SetValue(cfg.Proxy.User)
	proxySection.Key("password").SetValue(cfg.Proxy.Password)
	proxySection.Key("no_proxy").SetValue(cfg.Proxy.NoProxy)
	proxySection.Key("warmup").SetValue(fmt.Sprintf("%t", cfg.Proxy.Warmup))

	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Notifications.Enabled))
	notifySection.Key("show_scenario_events").SetValue(fmt.Sprintf("%t", cfg.Notifications.ShowScenarioEvents))

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

// Validate checks if the agent configuration is valid.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *AgentConfig) Validate() error {
	if _, _, err := net.SplitHostPort(cfg.Agent.ListenAddr); err != nil {
		return ErrAgentInvalidListenAddr
	}
	if strings.TrimSpace(cfg.Agent.ComposeCommand) == "" {
		return ErrAgentMissingCompose
	}
	if cfg.Display.ListenPort < 1 || cfg.Display.ListenPort > 65535 {
		return ErrAgentInvalidDisplayPort
	}
	switch strings.ToLower(cfg.Proxy.Mode) {
	case "no-proxy", "", "system", "basic", "ntlm":
	default:
		return ErrAgentInvalidProxyMode
	}
	return nil
}

// ResolveDisplayName returns the configured display name, falling back to the
// hostname when unset.
func (cfg *AgentConfig) ResolveDisplayName() string {
	if cfg.Agent.DisplayName != "" {
		return cfg.Agent.DisplayName
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "lise-agent"
	}
	return hostname
}
