package gui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/lise-project/lise-desktop/internal/agent/client"
	"github.com/lise-project/lise-desktop/internal/events"
	"github.com/lise-project/lise-desktop/internal/models"
)

// ScenarioPanel holds the orchestrator connect controls and the stop
// button for the running scenario. Starting scenarios is the
// orchestrator's (or the CLI's) job; the console monitors and stops.
type ScenarioPanel struct {
	ctx    context.Context
	client *client.Client
	window fyne.Window

	ipEntry       *widget.Entry
	connectButton *widget.Button
	stopButton    *widget.Button
}

// NewScenarioPanel creates the panel. Calls against the agent API run on
// goroutines bound to ctx, so closing the window abandons them.
func NewScenarioPanel(ctx context.Context, c *client.Client, window fyne.Window) *ScenarioPanel {
	return &ScenarioPanel{
		ctx:    ctx,
		client: c,
		window: window,
	}
}

// Build creates the scenario panel UI
func (sp *ScenarioPanel) Build() fyne.CanvasObject {
	sp.ipEntry = widget.NewEntry()
	sp.ipEntry.SetPlaceHolder("Orchestrator IP (e.g. 192.168.1.10)")

	sp.connectButton = widget.NewButton("Connect", sp.onConnect)
	sp.stopButton = widget.NewButton("Stop Scenario", sp.onStop)
	sp.stopButton.Disable() // until a poll reports one running

	return container.NewBorder(nil, nil,
		widget.NewLabel("Orchestrator:"),
		container.NewHBox(sp.connectButton, sp.stopButton),
		sp.ipEntry,
	)
}

// Update enables the buttons that make sense for the polled agent state.
func (sp *ScenarioPanel) Update(ev *events.AgentStatusEvent) {
	fyne.Do(func() {
		if sp.stopButton == nil {
			return
		}
		if ev.Running {
			sp.connectButton.Enable()
		} else {
			sp.connectButton.Disable()
		}
		if ev.Running && ev.Scenario != "" {
			sp.stopButton.Enable()
		} else {
			sp.stopButton.Disable()
		}
	})
}

func (sp *ScenarioPanel) onConnect() {
	ip := strings.TrimSpace(sp.ipEntry.Text)
	if ip == "" {
		dialog.ShowInformation("Connect", "Enter the orchestrator's IP address first.", sp.window)
		return
	}

	sp.connectButton.Disable()
	go func() {
		// DisplayName is left empty so the agent falls back to its
		// configured name (or the hostname).
		resp, err := sp.client.Connect(sp.ctx, models.ConnectRequest{OrchestratorIP: ip})

		fyne.Do(func() { sp.connectButton.Enable() })
		if err != nil {
			guiLogger.Error().Err(err).Str("orchestrator", ip).Msg("Connect failed")
			fyne.Do(func() { dialog.ShowError(err, sp.window) })
			return
		}
		guiLogger.Infof("%s", resp.Message)
	}()
}

func (sp *ScenarioPanel) onStop() {
	dialog.ShowConfirm("Stop scenario?",
		"This brings the scenario's containers down.",
		func(confirmed bool) {
			if !confirmed {
				return
			}
			sp.stopButton.Disable()
			go func() {
				resp, err := sp.client.StopScenario(sp.ctx)
				if err != nil {
					guiLogger.Error().Err(err).Msg("Failed to stop scenario")
					fyne.Do(func() {
						sp.stopButton.Enable()
						dialog.ShowError(err, sp.window)
					})
					return
				}
				// The next poll flips the button from the agent's state.
				guiLogger.Infof("%s", resp.Message)
			}()
		},
		sp.window,
	)
}
