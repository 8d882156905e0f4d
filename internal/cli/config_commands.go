// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lise-desktop configuration",
		Long: `Configuration management commands for lise-desktop.

Commands:
  show       - Display current configuration
  set-proxy  - Configure the outbound proxy for orchestrator calls
  path       - Show configuration file paths`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetProxyCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

Two files are shown:
  desktop.ini - console settings (agent launch hook, notifications)
  agent.ini   - agent settings (API, display proxy, outbound proxy)

Missing files fall back to defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			desktopCfg, err := config.LoadDesktopConfig("")
			if err != nil {
				return fmt.Errorf("failed to load desktop config: %w", err)
			}
			agentCfg, err := config.LoadAgentConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load agent config: %w", err)
			}

			fmt.Println("Current Configuration")
			fmt.Println("=====================")
			fmt.Println()

			fmt.Println("Launcher (desktop.ini):")
			fmt.Printf("  Launch Mode:      %s\n", desktopCfg.Launcher.LaunchMode)
			if desktopCfg.Launcher.AgentPath != "" {
				fmt.Printf("  Agent Path:       %s\n", desktopCfg.Launcher.AgentPath)
			} else {
				fmt.Println("  Agent Path:       <derived from executable location>")
			}
			fmt.Printf("  Dev Unnest Depth: %d\n", desktopCfg.Launcher.DevUnnestDepth)
			fmt.Printf("  Dev Agent Subdir: %s\n", desktopCfg.Launcher.DevAgentSubdir)
			fmt.Println()

			fmt.Println("Agent (agent.ini):")
			fmt.Printf("  Listen Address:  %s\n", agentCfg.Agent.ListenAddr)
			if agentCfg.Agent.DisplayName != "" {
				fmt.Printf("  Display Name:    %s\n", agentCfg.Agent.DisplayName)
			} else {
				fmt.Printf("  Display Name:    <hostname: %s>\n", agentCfg.ResolveDisplayName())
			}
			fmt.Printf("  Work Directory:  %s\n", agentCfg.Agent.WorkDir)
			fmt.Printf("  Compose Command: %s\n", agentCfg.Agent.ComposeCommand)
			fmt.Println()

			fmt.Println("Display Proxy:")
			fmt.Printf("  Enabled:     %t\n", agentCfg.Display.Enabled)
			fmt.Printf("  Listen Port: %d\n", agentCfg.Display.ListenPort)
			fmt.Printf("  Websockify:  %s\n", agentCfg.Display.WebsockifyPath)
			if agentCfg.Display.NoVNCDir != "" {
				fmt.Printf("  NoVNC Dir:   %s\n", agentCfg.Display.NoVNCDir)
			}
			fmt.Println()

			fmt.Println("Proxy Settings:")
			fmt.Printf("  Proxy Mode: %s\n", agentCfg.Proxy.Mode)
			if agentCfg.Proxy.Host != "" {
				fmt.Printf("  Proxy Host: %s\n", agentCfg.Proxy.Host)
				fmt.Printf("  Proxy Port: %d\n", agentCfg.Proxy.Port)
			}
			if agentCfg.Proxy.User != "" {
				fmt.Printf("  Proxy User: %s\n", agentCfg.Proxy.User)
				if agentCfg.Proxy.Password != "" {
					// Never display any portion of the password
					fmt.Printf("  Password:   <set (%d chars)>\n", len(agentCfg.Proxy.Password))
				} else {
					fmt.Println("  Password:   <not set>")
				}
			}
			if agentCfg.Proxy.NoProxy != "" {
				fmt.Printf("  No Proxy:   %s\n", agentCfg.Proxy.NoProxy)
			}
			fmt.Println()

			fmt.Println("Notifications:")
			fmt.Printf("  Console: enabled=%t show_launch_failure=%t\n",
				desktopCfg.Notifications.Enabled, desktopCfg.Notifications.ShowLaunchFailure)
			fmt.Printf("  Agent:   enabled=%t show_scenario_events=%t\n",
				agentCfg.Notifications.Enabled, agentCfg.Notifications.ShowScenarioEvents)

			return nil
		},
	}
}

// newConfigSetProxyCmd creates the 'config set-proxy' command.
func newConfigSetProxyCmd() *cobra.Command {
	var (
		mode    string
		host    string
		port    int
		user    string
		noProxy string
		warmup  bool
	)

	cmd := &cobra.Command{
		Use:   "set-proxy",
		Short: "Configure the outbound proxy for orchestrator calls",
		Long: `Set the proxy the agent uses to reach the orchestrator.

Modes:
  no-proxy - direct connection (default)
  system   - use the environment's proxy settings
  basic    - explicit proxy with optional basic auth
  ntlm     - explicit proxy with NTLM auth

When a user is set for basic or ntlm mode, the password is prompted
with echo disabled and stored in agent.ini.

Examples:
  lise-desktop config set-proxy --mode system
  lise-desktop config set-proxy --mode ntlm --host proxy.corp.example --port 8080 --user jdoe
  lise-desktop config set-proxy --mode no-proxy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			cfg, err := config.LoadAgentConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if mode != "" {
				cfg.Proxy.Mode = mode
			}
			if host != "" {
				cfg.Proxy.Host = host
			}
			if port != 0 {
				cfg.Proxy.Port = port
			}
			if user != "" {
				cfg.Proxy.User = user
			}
			if cmd.Flags().Changed("no-proxy") {
				cfg.Proxy.NoProxy = noProxy
			}
			if cmd.Flags().Changed("warmup") {
				cfg.Proxy.Warmup = warmup
			}

			if http.NeedsProxyPassword(&cfg.Proxy) {
				password, err := promptPassword(fmt.Sprintf("Proxy password for %s: ", cfg.Proxy.User))
				if err != nil {
					return err
				}
				cfg.Proxy.Password = password
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid proxy configuration: %w", err)
			}
			if err := config.SaveAgentConfig(cfg, cfgFile); err != nil {
				return err
			}

			path := cfgFile
			if path == "" {
				path, _ = config.DefaultAgentConfigPath()
			}
			logger.Info().Str("path", path).Str("mode", cfg.Proxy.Mode).Msg("Proxy configuration saved")
			fmt.Printf("✓ Proxy configuration saved to: %s\n", path)
			fmt.Println("Restart the agent for the change to take effect.")

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Proxy mode: no-proxy, system, basic, ntlm")
	cmd.Flags().StringVar(&host, "host", "", "Proxy host")
	cmd.Flags().IntVar(&port, "port", 0, "Proxy port")
	cmd.Flags().StringVar(&user, "user", "", "Proxy username (password is prompted, never a flag)")
	cmd.Flags().StringVar(&noProxy, "no-proxy", "", "Comma-separated proxy bypass list (hosts, domains, CIDRs)")
	cmd.Flags().BoolVar(&warmup, "warmup", false, "Warm the proxy connection up when the orchestrator client is built")

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			desktopPath, err := config.DefaultDesktopConfigPath()
			if err != nil {
				return err
			}
			agentPath := cfgFile
			if agentPath == "" {
				agentPath, err = config.DefaultAgentConfigPath()
				if err != nil {
					return err
				}
			}

			fmt.Printf("desktop.ini: %s%s\n", desktopPath, existsMarker(desktopPath))
			fmt.Printf("agent.ini:   %s%s\n", agentPath, existsMarker(agentPath))
			return nil
		},
	}
}

func existsMarker(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not found, defaults apply)"
	}
	return ""
}
