// Package agent implements the desktop agent: a small HTTP service that
// registers with an orchestrator, runs compose scenarios, and relays
// container logs.
package agent

import (
	"fmt"
	"sync"

	"github.com/lise-project/lise-desktop/internal/models"
)

// State tracks the agent's connection and scenario lifecycle. All access
// is mutex guarded; handlers read it concurrently with the log streamer.
type State struct {
	mu              sync.Mutex
	statusMessage   string
	connected       bool
	displayName     string
	orchestratorIP  string
	currentScenario string
}

// NewState returns a disconnected state.
func NewState() *State {
	return &State{statusMessage: "Disconnected"}
}

// SetConnected records a successful orchestrator registration.
func (s *State) SetConnected(displayName, orchestratorIP string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.displayName = displayName
	s.orchestratorIP = orchestratorIP
	s.statusMessage = fmt.Sprintf("Connected to %s", orchestratorIP)
}

// SetScenario records a running scenario.
func (s *State) SetScenario(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentScenario = name
	s.statusMessage = fmt.Sprintf("Running scenario: %s", name)
}

// ClearScenario marks the agent idle after a scenario stops.
func (s *State) ClearScenario() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentScenario = ""
	s.statusMessage = "Idle"
}

// Connected reports whether the agent has registered with an orchestrator.
func (s *State) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// DisplayName returns the name the agent registered under, or "" before
// the first connect.
func (s *State) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// OrchestratorIP returns the registered orchestrator address, or "".
func (s *State) OrchestratorIP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orchestratorIP
}

// Scenario returns the running scenario name, or "" when idle.
func (s *State) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentScenario
}

// Snapshot returns the current status as an API response. Unset fields
// are nil so they serialize as JSON null.
func (s *State) Snapshot() models.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.StatusResponse{
		Status:          s.statusMessage,
		IsConnected:     s.connected,
		DisplayName:     optString(s.displayName),
		OrchestratorIP:  optString(s.orchestratorIP),
		CurrentScenario: optString(s.currentScenario),
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
