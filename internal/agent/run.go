package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/lise-project/lise-desktop/internal/agent/api"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/notify"
)

// Run serves the agent API until ctx is cancelled, then drains the HTTP
// server and stops the service's own children (display proxy, log
// follower). Scenario containers are deliberately left running; they
// belong to scenario/stop, not to the agent's lifetime.
func Run(ctx context.Context, cfg *config.AgentConfig, listenAddr string, log *logging.Logger) error {
	if listenAddr == "" {
		listenAddr = cfg.Agent.ListenAddr
	}
	if err := os.MkdirAll(cfg.Agent.WorkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	// Connection notifications stay on: the agent is the only process that
	// knows the moment registration succeeds.
	notifier := notify.NewNotifier(&notify.Config{
		Enabled:            cfg.Notifications.Enabled,
		ShowScenarioEvents: cfg.Notifications.ShowScenarioEvents,
		ShowConnection:     true,
	}, log)

	hub := api.NewHub(log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	svc := NewService(cfg, hub, notifier, log)
	srv := api.NewServer(listenAddr, svc, hub, log)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	select {
	case err := <-serveErr:
		// The listener failed before any shutdown was requested.
		svc.StopChildren()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down agent")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server did not drain cleanly")
	}
	svc.StopChildren()
	if dropped := hub.DroppedLines(); dropped > 0 {
		log.Debug().Int64("lines", dropped).Msg("Log hub dropped lines to slow viewers")
	}
	return <-serveErr
}
