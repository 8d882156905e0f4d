// Package cli provides the scenario commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lise-project/lise-desktop/internal/agent/client"
	"github.com/lise-project/lise-desktop/internal/agent/scenario"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/models"
	"github.com/lise-project/lise-desktop/internal/progress"
)

// newScenarioCmd creates the 'scenario' command group.
func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Start, stop, and follow compose scenarios",
		Long: `Drive scenarios on the local agent.

A scenario is a docker-compose file; the agent brings its services up,
streams their logs, and optionally exposes a VNC display in the browser.

Examples:
  # Start a scenario from a compose file
  lise-desktop scenario start --compose lab.yaml

  # Start with a name and a browser display for the VM's VNC port
  lise-desktop scenario start --compose lab.yaml --name web-lab --vnc-port 5901

  # Follow container logs
  lise-desktop scenario logs

  # Bring the scenario down
  lise-desktop scenario stop`,
	}

	cmd.AddCommand(newScenarioStartCmd())
	cmd.AddCommand(newScenarioStopCmd())
	cmd.AddCommand(newScenarioLogsCmd())

	return cmd
}

// newScenarioStartCmd creates the 'scenario start' command.
func newScenarioStartCmd() *cobra.Command {
	var (
		name        string
		composeFile string
		vncPort     int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a scenario from a compose file",
		Long: `Send a compose file to the agent and wait for its services to come up.

The file is validated locally first. The command blocks until the agent
reports the bring-up finished; compose pulls can take a while on the
first run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(composeFile)
			if err != nil {
				return fmt.Errorf("failed to read compose file: %w", err)
			}

			services, err := scenario.Services(string(content))
			if err != nil {
				return fmt.Errorf("invalid compose file %s: %w", composeFile, err)
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(composeFile), filepath.Ext(composeFile))
			}

			cfg, err := config.LoadAgentConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Printf("Starting scenario '%s' (%d services)\n", name, len(services))

			ui := progress.NewScenarioUI(len(services))
			bars := make([]*progress.ServiceBar, 0, len(services))
			for _, svc := range services {
				bars = append(bars, ui.AddService(svc))
			}

			resp, err := client.New(localAgentURL(cfg.Agent.ListenAddr)).StartScenario(GetContext(), models.StartScenarioRequest{
				ScenarioName:       name,
				ComposeFileContent: string(content),
				VNCPort:            vncPort,
			})
			if err != nil {
				for _, bar := range bars {
					bar.Abort()
				}
				ui.Wait()
				return fmt.Errorf("failed to start scenario: %w", err)
			}

			for _, bar := range bars {
				bar.Done()
			}
			ui.Wait()

			fmt.Println(resp.Message)
			if vncPort > 0 && cfg.Display.Enabled {
				fmt.Printf("Display: http://localhost:%d/vnc.html\n", cfg.Display.ListenPort)
			}
			fmt.Println("Follow container logs with: lise-desktop scenario logs")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Scenario name (default: compose file name)")
	cmd.Flags().StringVarP(&composeFile, "compose", "f", "", "Path to the compose file describing the scenario (required)")
	cmd.Flags().IntVar(&vncPort, "vnc-port", 0, "VNC port of the scenario's VM to expose in the browser (0 = no display)")
	cmd.MarkFlagRequired("compose")

	return cmd
}

// newScenarioStopCmd creates the 'scenario stop' command.
func newScenarioStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Bring the running scenario down",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAgentConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			resp, err := client.New(localAgentURL(cfg.Agent.ListenAddr)).StopScenario(GetContext())
			if err != nil {
				return fmt.Errorf("failed to stop scenario: %w", err)
			}

			fmt.Println(resp.Message)
			return nil
		},
	}
}

// newScenarioLogsCmd creates the 'scenario logs' command.
func newScenarioLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Follow scenario container logs",
		Long: `Attach to the agent's log stream and print container log lines as they
arrive. Runs until interrupted or the scenario stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioLogs()
		},
	}
}

// runScenarioLogs implements 'scenario logs' and the 'logs' shortcut.
func runScenarioLogs() error {
	cfg, err := config.LoadAgentConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	err = client.New(localAgentURL(cfg.Agent.ListenAddr)).StreamLogs(GetContext(), func(line string) {
		fmt.Println(line)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
