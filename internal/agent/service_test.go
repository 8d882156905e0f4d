package agent

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lise-project/lise-desktop/internal/agent/api"
	"github.com/lise-project/lise-desktop/internal/agent/scenario"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/models"
	"github.com/lise-project/lise-desktop/internal/orchestrator"
)

const testCompose = `services:
  kali:
    image: lise/kali-vnc:latest
`

func discardLogger() *logging.Logger {
	log := logging.NewDefaultCLILogger()
	log.SetOutput(io.Discard)
	return log
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compose scripts require a unix shell")
	}
}

// fakeOrchestrator records registration and log calls.
type fakeOrchestrator struct {
	mu        sync.Mutex
	regErr    error
	registers []orchestrator.RegisterRequest
	logs      []orchestrator.LogEntry
}

func (f *fakeOrchestrator) Register(_ context.Context, req orchestrator.RegisterRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers = append(f.registers, req)
	return f.regErr
}

func (f *fakeOrchestrator) PostLog(_ context.Context, entry orchestrator.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeOrchestrator) logEntries() []orchestrator.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]orchestrator.LogEntry(nil), f.logs...)
}

// writeAgentCompose fakes the compose binary: up and down succeed, logs
// prints two lines and exits.
func writeAgentCompose(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-compose")
	script := `#!/bin/sh
echo "$@" >> "` + filepath.Join(dir, "args.log") + `"
case "$*" in
  *"up -d"*) exit 0 ;;
  *"logs -f"*) printf 'alpha\n'; printf 'beta\n'; exit 0 ;;
  *"down"*) exit 0 ;;
esac
exit 0
`
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing compose script: %v", err)
	}
	return path
}

// writeSlowStartCompose is writeAgentCompose with a deliberately slow
// "up" so tests can overlap other calls with an in-flight start.
func writeSlowStartCompose(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-compose")
	script := `#!/bin/sh
echo "$@" >> "` + filepath.Join(dir, "args.log") + `"
case "$*" in
  *"up -d"*) sleep 0.5; exit 0 ;;
  *"logs -f"*) printf 'alpha\n'; exit 0 ;;
  *"down"*) exit 0 ;;
esac
exit 0
`
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing compose script: %v", err)
	}
	return path
}

func newTestService(t *testing.T, fake *fakeOrchestrator) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewAgentConfig()
	cfg.Agent.WorkDir = dir
	cfg.Agent.ComposeCommand = writeAgentCompose(t, dir)
	cfg.Agent.DisplayName = "bench-42"
	cfg.Display.Enabled = false
	cfg.Notifications.Enabled = false

	svc := NewService(cfg, api.NewHub(discardLogger()), nil, discardLogger())
	svc.settle = 20 * time.Millisecond
	svc.newClient = func(string) (orchestratorClient, error) { return fake, nil }
	return svc
}

func TestConnectRegistersAgent(t *testing.T) {
	fake := &fakeOrchestrator{}
	svc := newTestService(t, fake)

	msg, err := svc.Connect(context.Background(), models.ConnectRequest{
		DisplayName:    "lab-pc-01",
		OrchestratorIP: "10.0.0.5",
	})
	if err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if msg != "Connected to 10.0.0.5" {
		t.Errorf("message = %q", msg)
	}

	if len(fake.registers) != 1 {
		t.Fatalf("registers = %d, want 1", len(fake.registers))
	}
	reg := fake.registers[0]
	if reg.DisplayName != "lab-pc-01" {
		t.Errorf("registered display name = %q", reg.DisplayName)
	}
	if reg.IPAddress == "" {
		t.Error("registered IP address is empty")
	}

	snap := svc.Status()
	if !snap.IsConnected {
		t.Error("IsConnected = false after Connect")
	}
	if snap.OrchestratorIP == nil || *snap.OrchestratorIP != "10.0.0.5" {
		t.Errorf("OrchestratorIP = %v", snap.OrchestratorIP)
	}
}

func TestConnectDisplayNameFallback(t *testing.T) {
	fake := &fakeOrchestrator{}
	svc := newTestService(t, fake)

	if _, err := svc.Connect(context.Background(), models.ConnectRequest{
		OrchestratorIP: "10.0.0.5",
	}); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if fake.registers[0].DisplayName != "bench-42" {
		t.Errorf("display name = %q, want configured fallback bench-42", fake.registers[0].DisplayName)
	}
}

func TestConnectRegistrationFailure(t *testing.T) {
	fake := &fakeOrchestrator{regErr: errors.New("connection refused")}
	svc := newTestService(t, fake)

	_, err := svc.Connect(context.Background(), models.ConnectRequest{
		DisplayName:    "lab-pc-01",
		OrchestratorIP: "10.0.0.5",
	})
	if err == nil {
		t.Fatal("Connect() = nil, want error")
	}
	if !strings.Contains(err.Error(), "register") {
		t.Errorf("error = %v", err)
	}
	if svc.Status().IsConnected {
		t.Error("IsConnected = true after failed registration")
	}
}

func TestScenarioLifecycle(t *testing.T) {
	skipOnWindows(t)
	fake := &fakeOrchestrator{}
	svc := newTestService(t, fake)

	if _, err := svc.Connect(context.Background(), models.ConnectRequest{
		DisplayName:    "lab-pc-01",
		OrchestratorIP: "10.0.0.5",
	}); err != nil {
		t.Fatalf("Connect() = %v", err)
	}

	err := svc.StartScenario(context.Background(), models.StartScenarioRequest{
		ScenarioName:       "dmz-breach",
		ComposeFileContent: testCompose,
	})
	if err != nil {
		t.Fatalf("StartScenario() = %v", err)
	}

	snap := svc.Status()
	if snap.CurrentScenario == nil || *snap.CurrentScenario != "dmz-breach" {
		t.Errorf("CurrentScenario = %v", snap.CurrentScenario)
	}
	if snap.Status != "Running scenario: dmz-breach" {
		t.Errorf("status = %q", snap.Status)
	}

	// The follower settles, tails the fake logs, and forwards them.
	deadline := time.Now().Add(2 * time.Second)
	for len(fake.logEntries()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("forwarded %d log lines, want 2", len(fake.logEntries()))
		}
		time.Sleep(20 * time.Millisecond)
	}
	entries := fake.logEntries()
	if entries[0].AgentName != "lab-pc-01" {
		t.Errorf("log agent name = %q", entries[0].AgentName)
	}
	if entries[0].LogLine != "alpha" || entries[1].LogLine != "beta" {
		t.Errorf("log lines = %q, %q", entries[0].LogLine, entries[1].LogLine)
	}

	msg, err := svc.StopScenario(context.Background())
	if err != nil {
		t.Fatalf("StopScenario() = %v", err)
	}
	if msg != "Scenario stopped." {
		t.Errorf("stop message = %q", msg)
	}
	snap = svc.Status()
	if snap.Status != "Idle" {
		t.Errorf("status after stop = %q", snap.Status)
	}
	if snap.CurrentScenario != nil {
		t.Errorf("CurrentScenario = %v after stop", snap.CurrentScenario)
	}

	args, readErr := os.ReadFile(filepath.Join(svc.cfg.Agent.WorkDir, "args.log"))
	if readErr != nil {
		t.Fatalf("reading args log: %v", readErr)
	}
	for _, want := range []string{"up -d", "logs -f --no-log-prefix", "down"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("compose invocations %q missing %q", args, want)
		}
	}
}

func TestStartScenarioWhileActive(t *testing.T) {
	skipOnWindows(t)
	svc := newTestService(t, &fakeOrchestrator{})

	if err := svc.StartScenario(context.Background(), models.StartScenarioRequest{
		ScenarioName:       "first",
		ComposeFileContent: testCompose,
	}); err != nil {
		t.Fatalf("StartScenario() = %v", err)
	}
	defer svc.StopScenario(context.Background())

	err := svc.StartScenario(context.Background(), models.StartScenarioRequest{
		ScenarioName:       "second",
		ComposeFileContent: testCompose,
	})
	if !errors.Is(err, scenario.ErrScenarioActive) {
		t.Errorf("second StartScenario() = %v, want ErrScenarioActive", err)
	}
}

func TestStopScenarioIdempotent(t *testing.T) {
	svc := newTestService(t, &fakeOrchestrator{})

	msg, err := svc.StopScenario(context.Background())
	if err != nil {
		t.Fatalf("StopScenario() = %v", err)
	}
	if msg != "No scenario was running." {
		t.Errorf("message = %q", msg)
	}
}

func TestStopScenarioWaitsForStartInFlight(t *testing.T) {
	skipOnWindows(t)
	fake := &fakeOrchestrator{}
	dir := t.TempDir()
	cfg := config.NewAgentConfig()
	cfg.Agent.WorkDir = dir
	cfg.Agent.ComposeCommand = writeSlowStartCompose(t, dir)
	cfg.Agent.DisplayName = "bench-42"
	cfg.Display.Enabled = false
	cfg.Notifications.Enabled = false

	svc := NewService(cfg, api.NewHub(discardLogger()), nil, discardLogger())
	svc.settle = 20 * time.Millisecond
	svc.newClient = func(string) (orchestratorClient, error) { return fake, nil }

	startErr := make(chan error, 1)
	go func() {
		startErr <- svc.StartScenario(context.Background(), models.StartScenarioRequest{
			ScenarioName:       "slow-boot",
			ComposeFileContent: testCompose,
		})
	}()

	// Wait until the slow "up" is underway, so the stop arrives while
	// the start is mid-flight.
	argsPath := filepath.Join(dir, "args.log")
	deadline := time.Now().Add(2 * time.Second)
	for {
		data, _ := os.ReadFile(argsPath)
		if strings.Contains(string(data), "up -d") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("fake compose up never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The stop must queue behind the start and then tear down the
	// scenario it finished bringing up, not slip in between the compose
	// call and the follower wiring.
	msg, err := svc.StopScenario(context.Background())
	if err != nil {
		t.Fatalf("StopScenario() = %v", err)
	}
	if msg != "Scenario stopped." {
		t.Errorf("stop message = %q, want the scenario torn down", msg)
	}
	if err := <-startErr; err != nil {
		t.Fatalf("StartScenario() = %v", err)
	}

	snap := svc.Status()
	if snap.CurrentScenario != nil {
		t.Errorf("CurrentScenario = %v after stop", snap.CurrentScenario)
	}
	svc.mu.Lock()
	orphaned := svc.logCancel != nil
	svc.mu.Unlock()
	if orphaned {
		t.Error("log follower left running after stop")
	}
}

func TestStopChildrenWithoutScenario(t *testing.T) {
	svc := newTestService(t, &fakeOrchestrator{})
	svc.StopChildren()
}

func TestStartScenarioWithoutConnection(t *testing.T) {
	skipOnWindows(t)
	fake := &fakeOrchestrator{}
	svc := newTestService(t, fake)

	// Logs still flow to local viewers when no orchestrator is connected.
	if err := svc.StartScenario(context.Background(), models.StartScenarioRequest{
		ScenarioName:       "offline-lab",
		ComposeFileContent: testCompose,
	}); err != nil {
		t.Fatalf("StartScenario() = %v", err)
	}
	defer svc.StopScenario(context.Background())

	time.Sleep(200 * time.Millisecond)
	if got := len(fake.logEntries()); got != 0 {
		t.Errorf("forwarded %d lines while disconnected, want 0", got)
	}
}
