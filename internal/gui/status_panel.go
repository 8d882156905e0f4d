package gui

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/lise-project/lise-desktop/internal/events"
)

// StatusLevel represents the kind of status being displayed
type StatusLevel int

const (
	// StatusInfo is the default info level
	StatusInfo StatusLevel = iota
	// StatusSuccess indicates a healthy, connected agent
	StatusSuccess
	// StatusWarning indicates a degraded condition
	StatusWarning
	// StatusError indicates the agent is unreachable
	StatusError
	// StatusProgress indicates the console is waiting on the agent
	StatusProgress
)

// StatusPanel is the console header: agent liveness with a level icon on
// the first line, display name, orchestrator connection, and scenario on
// the second.
type StatusPanel struct {
	widget.BaseWidget

	mu      sync.RWMutex
	level   StatusLevel
	message string

	icon        *widget.Icon
	spinner     *widget.Activity
	statusLabel *widget.Label
	detailLabel *widget.Label
}

// NewStatusPanel creates the header in its waiting state; the first
// status poll resolves it.
func NewStatusPanel() *StatusPanel {
	sp := &StatusPanel{
		level:   StatusProgress,
		message: "Waiting for agent...",
	}
	sp.statusLabel = widget.NewLabel("Waiting for agent...")
	sp.statusLabel.TextStyle = fyne.TextStyle{Bold: true}
	sp.detailLabel = widget.NewLabel("")
	sp.icon = widget.NewIcon(theme.InfoIcon())
	sp.icon.Hide()
	sp.spinner = widget.NewActivity()
	sp.spinner.Start()
	sp.ExtendBaseWidget(sp)
	return sp
}

// SetStatus updates the status message and level
func (sp *StatusPanel) SetStatus(message string, level StatusLevel) {
	sp.mu.Lock()
	sp.level = level
	sp.message = message
	sp.mu.Unlock()

	fyne.Do(func() {
		sp.statusLabel.SetText(message)
		sp.spinner.Stop()
		sp.spinner.Hide()
		sp.icon.Show()

		switch level {
		case StatusInfo:
			sp.icon.SetResource(theme.InfoIcon())
		case StatusSuccess:
			sp.icon.SetResource(theme.ConfirmIcon())
		case StatusWarning:
			sp.icon.SetResource(theme.WarningIcon())
		case StatusError:
			sp.icon.SetResource(theme.ErrorIcon())
		case StatusProgress:
			sp.icon.Hide()
			sp.spinner.Show()
			sp.spinner.Start()
		}
	})
}

// statusForEvent maps one poll result to the header's message, level, and
// detail line. The message carries the agent's own status string
// ("Disconnected", "Connected to <ip>", "Running scenario: <name>",
// "Idle") when the agent is reachable.
func statusForEvent(ev *events.AgentStatusEvent) (message string, level StatusLevel, detail string) {
	if !ev.Running {
		return "Agent not reachable", StatusError, "Start it with: lise-desktop agent run"
	}

	level = StatusInfo
	if ev.Connected {
		level = StatusSuccess
	}

	var parts []string
	if ev.DisplayName != "" {
		parts = append(parts, fmt.Sprintf("Name: %s", ev.DisplayName))
	}
	if ev.OrchestratorIP != "" {
		parts = append(parts, fmt.Sprintf("Orchestrator: %s", ev.OrchestratorIP))
	} else {
		parts = append(parts, "Orchestrator: not connected")
	}
	if ev.Scenario != "" {
		parts = append(parts, fmt.Sprintf("Scenario: %s", ev.Scenario))
	}
	return ev.StatusMessage, level, strings.Join(parts, "    ")
}

// Update maps one status poll result onto the header.
func (sp *StatusPanel) Update(ev *events.AgentStatusEvent) {
	message, level, detail := statusForEvent(ev)
	sp.SetStatus(message, level)
	sp.setDetail(detail)
}

func (sp *StatusPanel) setDetail(text string) {
	fyne.Do(func() {
		sp.detailLabel.SetText(text)
	})
}

// GetMessage returns the current status message
func (sp *StatusPanel) GetMessage() string {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.message
}

// GetLevel returns the current status level
func (sp *StatusPanel) GetLevel() StatusLevel {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.level
}

// CreateRenderer implements fyne.Widget
func (sp *StatusPanel) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewVBox(
		container.NewHBox(sp.icon, sp.spinner, sp.statusLabel),
		sp.detailLabel,
	)
	return widget.NewSimpleRenderer(content)
}
