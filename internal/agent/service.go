package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lise-project/lise-desktop/internal/agent/api"
	"github.com/lise-project/lise-desktop/internal/agent/display"
	"github.com/lise-project/lise-desktop/internal/agent/logstream"
	"github.com/lise-project/lise-desktop/internal/agent/scenario"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/models"
	"github.com/lise-project/lise-desktop/internal/netutil"
	"github.com/lise-project/lise-desktop/internal/notify"
	"github.com/lise-project/lise-desktop/internal/orchestrator"
)

// orchestratorClient is the slice of the orchestrator API the agent
// needs. Tests substitute a recording fake.
type orchestratorClient interface {
	Register(ctx context.Context, req orchestrator.RegisterRequest) error
	PostLog(ctx context.Context, entry orchestrator.LogEntry) error
}

// Service implements the agent behavior behind the HTTP API: orchestrator
// registration, the scenario lifecycle, and log fan-out.
type Service struct {
	log      *logging.Logger
	cfg      *config.AgentConfig
	state    *State
	runner   *scenario.Runner
	proxy    *display.Proxy
	hub      *api.Hub
	notifier *notify.Notifier

	// newClient builds the orchestrator client for a base URL; swapped
	// out in tests.
	newClient func(baseURL string) (orchestratorClient, error)

	// settle overrides the log follower's container settle delay when
	// nonzero.
	settle time.Duration

	// opMu serializes scenario lifecycle operations. The runner guards
	// the compose commands itself, but the proxy, log follower, and
	// state updates around them have to move as one unit too.
	opMu sync.Mutex

	mu        sync.Mutex
	client    orchestratorClient
	logCancel context.CancelFunc
	logDone   chan struct{}
}

// NewService wires the scenario runner, display proxy, and orchestrator
// client factory from the agent config.
func NewService(cfg *config.AgentConfig, hub *api.Hub, notifier *notify.Notifier, log *logging.Logger) *Service {
	return &Service{
		log:      log,
		cfg:      cfg,
		state:    NewState(),
		runner:   scenario.NewRunner(cfg.Agent.WorkDir, cfg.Agent.ComposeCommand, log),
		proxy:    display.New(&cfg.Display, log),
		hub:      hub,
		notifier: notifier,
		newClient: func(baseURL string) (orchestratorClient, error) {
			return orchestrator.NewClient(baseURL, &cfg.Proxy, log)
		},
	}
}

// Connect registers this agent with the orchestrator at the requested
// address and remembers the connection on success.
func (s *Service) Connect(ctx context.Context, req models.ConnectRequest) (string, error) {
	displayName := req.DisplayName
	if displayName == "" {
		displayName = s.cfg.ResolveDisplayName()
	}

	client, err := s.newClient(orchestrator.BaseURL(req.OrchestratorIP))
	if err != nil {
		return "", fmt.Errorf("failed to build orchestrator client: %w", err)
	}

	regCtx, cancel := orchestrator.RegisterTimeout(ctx)
	defer cancel()
	err = client.Register(regCtx, orchestrator.RegisterRequest{
		DisplayName: displayName,
		IPAddress:   netutil.LocalIP(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to register with orchestrator: %w", err)
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	s.state.SetConnected(displayName, req.OrchestratorIP)

	s.log.Info().
		Str("display_name", displayName).
		Str("orchestrator", req.OrchestratorIP).
		Msg("Registered with orchestrator")
	if s.notifier != nil {
		s.notifier.Connected(req.OrchestratorIP)
	}
	return fmt.Sprintf("Connected to %s", req.OrchestratorIP), nil
}

// StartScenario brings the requested scenario up, then starts the display
// proxy and log streamer. Proxy and streamer failures are logged but do
// not fail the start; the containers are already running.
func (s *Service) StartScenario(ctx context.Context, req models.StartScenarioRequest) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.runner.Start(ctx, req.ScenarioName, req.ComposeFileContent); err != nil {
		if s.notifier != nil {
			s.notifier.ScenarioFailed(req.ScenarioName, err.Error())
		}
		return err
	}
	s.state.SetScenario(req.ScenarioName)
	s.log.Info().Str("scenario", req.ScenarioName).Msg("Scenario started")

	if s.cfg.Display.Enabled && req.VNCPort > 0 {
		if err := s.proxy.Start(req.VNCPort); err != nil {
			s.log.Error().Err(err).Msg("Display proxy failed to start; scenario continues without it")
			if s.notifier != nil {
				s.notifier.Alert(fmt.Sprintf("Display proxy failed to start: %v", err))
			}
		}
	}

	s.startLogStream()

	if s.notifier != nil {
		s.notifier.ScenarioStarted(req.ScenarioName)
	}
	return nil
}

// StopScenario brings the running scenario down and tears down its proxy
// and log streamer. Stopping with nothing running is not an error.
func (s *Service) StopScenario(ctx context.Context) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	name := s.state.Scenario()
	if err := s.runner.Stop(ctx); err != nil {
		if errors.Is(err, scenario.ErrNoScenario) {
			return "No scenario was running.", nil
		}
		return "", err
	}

	s.stopLogStream()
	s.proxy.Stop()
	s.state.ClearScenario()

	s.log.Info().Str("scenario", name).Msg("Scenario stopped")
	if s.notifier != nil {
		s.notifier.ScenarioStopped(name)
	}
	return "Scenario stopped.", nil
}

// Status reports the agent's current state snapshot.
func (s *Service) Status() models.StatusResponse {
	return s.state.Snapshot()
}

// StopChildren tears down the display proxy and log follower on agent
// shutdown. Scenario containers are left running; they belong to
// scenario/stop, not to the agent's lifetime.
func (s *Service) StopChildren() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stopLogStream()
	s.proxy.Stop()
}

// startLogStream follows the scenario's compose logs on a goroutine,
// fanning each line out to the websocket hub and (when connected) the
// orchestrator.
func (s *Service) startLogStream() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.logCancel = cancel
	s.logDone = done
	client := s.client
	s.mu.Unlock()

	streamer := logstream.New(s.runner.ComposePath(), s.cfg.Agent.ComposeCommand, s.log)
	if s.settle > 0 {
		streamer.SettleDelay = s.settle
	}
	agentName := s.state.DisplayName()

	go func() {
		defer close(done)
		err := streamer.Follow(ctx, func(line string) {
			s.hub.Broadcast(line)
			if client != nil {
				if postErr := client.PostLog(context.Background(), orchestrator.LogEntry{
					AgentName: agentName,
					LogLine:   line,
				}); postErr != nil {
					s.log.Debug().Err(postErr).Msg("Could not forward log line to orchestrator")
				}
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Msg("Scenario log stream ended")
		}
	}()
}

func (s *Service) stopLogStream() {
	s.mu.Lock()
	cancel, done := s.logCancel, s.logDone
	s.logCancel, s.logDone = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
