// Package cli provides the agent lifecycle commands.
package cli

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lise-project/lise-desktop/internal/agent"
	"github.com/lise-project/lise-desktop/internal/agent/client"
	"github.com/lise-project/lise-desktop/internal/agent/pidfile"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/http"
	"github.com/lise-project/lise-desktop/internal/models"
	"github.com/lise-project/lise-desktop/internal/progress"
)

// newAgentCmd creates the 'agent' command group.
func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run and manage the bench agent",
		Long: `The agent is the HTTP service that drives compose scenarios on this
machine. The console launches it automatically; these commands run and
inspect it by hand.

Examples:
  # Run in the foreground (Ctrl+C to stop)
  lise-desktop agent run

  # Run detached in the background
  lise-desktop agent run --daemon

  # Inspect and stop a running agent
  lise-desktop agent status
  lise-desktop agent stop`,
	}

	cmd.AddCommand(newAgentRunCmd())
	cmd.AddCommand(newAgentStatusCmd())
	cmd.AddCommand(newAgentStopCmd())
	cmd.AddCommand(newAgentConnectCmd())

	return cmd
}

// newAgentRunCmd creates the 'agent run' command.
func newAgentRunCmd() *cobra.Command {
	var (
		daemonize  bool
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent HTTP API",
		Long: `Start the agent and serve its HTTP API until interrupted.

With --daemon the agent is re-executed detached from the terminal and
this command returns once its API answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			cfg, err := config.LoadAgentConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if listenAddr != "" {
				cfg.Agent.ListenAddr = listenAddr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid agent configuration: %w", err)
			}

			if pid, alive := pidfile.Alive(); alive && pid != os.Getpid() {
				return fmt.Errorf("agent is already running (PID %d)", pid)
			}

			if daemonize && !agent.IsDaemonChild() {
				pid, err := agent.SpawnDaemon(os.Args[1:])
				if err != nil {
					return fmt.Errorf("failed to start agent daemon: %w", err)
				}
				fmt.Printf("Agent daemon started (PID %d)\n", pid)

				// Wait until the API answers so startup failures surface
				// here instead of dying silently in the detached child.
				probe := client.New(localAgentURL(cfg.Agent.ListenAddr))
				retryCfg := http.Config{
					MaxRetries:   10,
					InitialDelay: 200 * time.Millisecond,
					MaxDelay:     2 * time.Second,
				}
				err = http.ExecuteWithRetry(GetContext(), retryCfg, func() error {
					_, err := probe.Status(GetContext())
					return err
				})
				if err != nil {
					return fmt.Errorf("agent daemon did not become ready: %w", err)
				}
				fmt.Printf("Agent API is ready at %s\n", localAgentURL(cfg.Agent.ListenAddr))
				return nil
			}

			// Foreground, or the re-executed daemon child. The child has
			// no terminal, so its logs go to the shared log directory.
			if agent.IsDaemonChild() {
				logFile, err := agent.OpenDaemonLog()
				if err != nil {
					return fmt.Errorf("failed to open daemon log: %w", err)
				}
				defer logFile.Close()
				logger.SetOutput(logFile)
			}

			if err := pidfile.Write(); err != nil {
				logger.Warn().Err(err).Msg("Could not write PID file")
			}
			defer pidfile.Remove()

			return agent.Run(GetContext(), cfg, cfg.Agent.ListenAddr, logger)
		},
	}

	cmd.Flags().BoolVarP(&daemonize, "daemon", "d", false, "Run detached in the background")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the agent API (host:port, overrides config)")

	return cmd
}

// newAgentStatusCmd creates the 'agent status' command.
func newAgentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent process and API status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentStatus()
		},
	}
}

// runAgentStatus implements 'agent status' and the 'status' shortcut.
func runAgentStatus() error {
	cfg, err := config.LoadAgentConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Agent Status")
	fmt.Println("============")

	pid, alive := pidfile.Alive()
	if alive {
		fmt.Printf("Process:      running (PID %d)\n", pid)
	} else {
		fmt.Println("Process:      not running")
	}

	endpoint := localAgentURL(cfg.Agent.ListenAddr)
	status, err := client.New(endpoint).Status(GetContext())
	if err != nil {
		fmt.Printf("API:          not responding (%s)\n", endpoint)
		if alive {
			return fmt.Errorf("agent process %d is alive but its API is not responding: %w", pid, err)
		}
		return nil
	}

	fmt.Printf("API:          %s\n", endpoint)
	fmt.Printf("Status:       %s\n", status.Status)
	if status.DisplayName != nil {
		fmt.Printf("Name:         %s\n", *status.DisplayName)
	}
	if status.OrchestratorIP != nil {
		fmt.Printf("Orchestrator: %s\n", *status.OrchestratorIP)
	}
	if status.CurrentScenario != nil {
		fmt.Printf("Scenario:     %s\n", *status.CurrentScenario)
	}
	return nil
}

// newAgentStopCmd creates the 'agent stop' command.
func newAgentStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a background agent",
		Long: `Signal the background agent to shut down and wait for it to exit.

The agent drains in-flight requests and stops its display proxy and log
follower. Scenario containers keep running; stop them with
'lise-desktop scenario stop' first if needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, running, err := pidfile.Stop()
			if err != nil {
				return err
			}
			if !running {
				fmt.Println("Agent is not running.")
				return nil
			}

			prog := progress.NewCLIProgress()
			prog.Start(int64(constants.DaemonStopAttempts), fmt.Sprintf("Stopping agent (PID %d)", pid))
			for attempt := 1; attempt <= constants.DaemonStopAttempts; attempt++ {
				time.Sleep(constants.DaemonStopWait)
				prog.Update(int64(attempt))
				if _, alive := pidfile.Alive(); !alive {
					prog.Finish()
					fmt.Println("Agent stopped.")
					return nil
				}
			}
			return fmt.Errorf("agent (PID %d) did not exit after %s",
				pid, time.Duration(constants.DaemonStopAttempts)*constants.DaemonStopWait)
		},
	}
}

// newAgentConnectCmd creates the 'agent connect' command.
func newAgentConnectCmd() *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "connect ORCHESTRATOR_IP",
		Short: "Register the agent with an orchestrator",
		Long: `Ask the running agent to register itself with the orchestrator at the
given address. After registering, the agent forwards scenario logs to
the orchestrator.

Examples:
  lise-desktop agent connect 10.0.4.17
  lise-desktop agent connect 10.0.4.17 --name bench-07`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAgentConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			resp, err := client.New(localAgentURL(cfg.Agent.ListenAddr)).Connect(GetContext(), models.ConnectRequest{
				DisplayName:    displayName,
				OrchestratorIP: args[0],
			})
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}

			fmt.Println(resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name to register under (default: configured name or hostname)")

	return cmd
}

// localAgentURL derives the loopback URL of the agent API from its
// listen address. Wildcard binds map to 127.0.0.1.
func localAgentURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return constants.AgentLocalEndpoint
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
