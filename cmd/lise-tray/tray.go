package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"

	"github.com/lise-project/lise-desktop/internal/agent/client"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/models"
	"github.com/lise-project/lise-desktop/internal/notify"
	"github.com/lise-project/lise-desktop/internal/version"
)

// trayApp manages the system tray application state.
type trayApp struct {
	client   *client.Client
	notifier *notify.Notifier
	mu       sync.RWMutex

	// Current status
	agentUp    bool
	lastStatus *models.StatusResponse
	lastError  string

	// Menu items (for dynamic updates)
	mStatus       *systray.MenuItem
	mOpenConsole  *systray.MenuItem
	mStopScenario *systray.MenuItem
	mQuit         *systray.MenuItem

	done chan struct{}
}

// runTray starts the system tray application.
func runTray() {
	systray.Run(onReady, onExit)
}

var app *trayApp

func onReady() {
	log := logging.NewDefaultCLILogger()

	desktopCfg, err := config.LoadDesktopConfig("")
	if err != nil {
		desktopCfg = config.NewDesktopConfig()
	}

	app = &trayApp{
		client: client.New(""),
		notifier: notify.NewNotifier(&notify.Config{
			Enabled:            desktopCfg.Notifications.Enabled,
			ShowScenarioEvents: true,
		}, log),
		done: make(chan struct{}),
	}

	systray.SetIcon(iconData())
	systray.SetTitle("LISE")
	systray.SetTooltip("LISE Desktop - Connecting...")

	app.mStatus = systray.AddMenuItem("Status: Checking...", "Agent status")
	app.mStatus.Disable()

	systray.AddSeparator()

	app.mOpenConsole = systray.AddMenuItem("Open Console", "Open the desktop console")
	app.mStopScenario = systray.AddMenuItem("Stop Scenario", "Stop the running scenario")
	app.mStopScenario.Disable()

	systray.AddSeparator()

	app.mQuit = systray.AddMenuItem("Quit Tray", "Exit the tray application")

	go app.refreshLoop()
	go app.handleMenuClicks()
}

func onExit() {
	if app != nil {
		close(app.done)
	}
}

// refreshLoop polls the agent status on a fixed interval.
func (a *trayApp) refreshLoop() {
	a.refreshStatus()

	ticker := time.NewTicker(constants.StatusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.refreshStatus()
		case <-a.done:
			return
		}
	}
}

// refreshStatus fetches the current status from the agent API and
// raises notifications on scenario transitions.
func (a *trayApp) refreshStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.StatusRequestTimeout)
	defer cancel()

	status, err := a.client.Status(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.agentUp = false
		a.lastError = err.Error()
		a.lastStatus = nil
		a.updateUI()
		return
	}

	a.notifyTransitions(a.lastStatus, status)

	// lastError is kept through successful polls so a failed menu action
	// stays visible in the tooltip until the next error replaces it.
	a.agentUp = true
	a.lastStatus = status
	a.updateUI()
}

// notifyTransitions compares consecutive status snapshots and posts a
// desktop notification when a scenario starts or stops. Must be called
// with a.mu held.
func (a *trayApp) notifyTransitions(prev, cur *models.StatusResponse) {
	if prev == nil {
		return
	}
	prevName := ""
	if prev.CurrentScenario != nil {
		prevName = *prev.CurrentScenario
	}
	curName := ""
	if cur.CurrentScenario != nil {
		curName = *cur.CurrentScenario
	}
	switch {
	case prevName == "" && curName != "":
		a.notifier.ScenarioStarted(curName)
	case prevName != "" && curName == "":
		a.notifier.ScenarioStopped(prevName)
	}
}

// updateUI updates the tray tooltip and menu items based on current
// state. Must be called with a.mu held.
func (a *trayApp) updateUI() {
	systray.SetTooltip(tooltipText(a.agentUp, a.lastStatus, a.lastError))
	a.mStatus.SetTitle(statusText(a.agentUp, a.lastStatus))
	if a.agentUp && a.lastStatus.CurrentScenario != nil {
		a.mStopScenario.Enable()
	} else {
		a.mStopScenario.Disable()
	}
}

// maxTooltipErrorLen bounds the error line in the tooltip; platform
// tooltips clip long strings anyway.
const maxTooltipErrorLen = 80

// tooltipText renders the tray tooltip for a status snapshot.
func tooltipText(agentUp bool, status *models.StatusResponse, lastError string) string {
	var tooltip string
	if !agentUp {
		tooltip = fmt.Sprintf("LISE Desktop %s\nAgent: Not Running", version.Version)
	} else {
		tooltip = fmt.Sprintf("LISE Desktop %s\nAgent: %s", version.Version, status.Status)
		if status.OrchestratorIP != nil {
			tooltip += fmt.Sprintf("\nOrchestrator: %s", *status.OrchestratorIP)
		}
		if status.CurrentScenario != nil {
			tooltip += fmt.Sprintf("\nScenario: %s", *status.CurrentScenario)
		}
	}
	if lastError != "" {
		msg := lastError
		if len(msg) > maxTooltipErrorLen {
			msg = msg[:maxTooltipErrorLen-3] + "..."
		}
		tooltip += "\nLast error: " + msg
	}
	return tooltip
}

// statusText renders the status menu item label.
func statusText(agentUp bool, status *models.StatusResponse) string {
	if !agentUp {
		return "Status: Agent Not Running"
	}
	if status.CurrentScenario != nil {
		return fmt.Sprintf("Status: running '%s'", *status.CurrentScenario)
	}
	return "Status: " + status.Status
}

// handleMenuClicks processes menu item clicks.
func (a *trayApp) handleMenuClicks() {
	for {
		select {
		case <-a.mOpenConsole.ClickedCh:
			a.openConsole()

		case <-a.mStopScenario.ClickedCh:
			a.stopScenario()

		case <-a.mQuit.ClickedCh:
			systray.Quit()
			return

		case <-a.done:
			return
		}
	}
}

// openConsole launches the desktop console binary sitting next to the
// tray executable, falling back to PATH lookup.
func (a *trayApp) openConsole() {
	exePath, err := os.Executable()
	if err != nil {
		a.setError(fmt.Sprintf("Failed to find executable path: %v", err))
		return
	}

	name := "lise-desktop"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	consolePath := filepath.Join(filepath.Dir(exePath), name)
	if _, err := os.Stat(consolePath); os.IsNotExist(err) {
		// Not installed alongside the tray; try PATH.
		consolePath = name
	}

	if err := exec.Command(consolePath, "--gui").Start(); err != nil {
		a.setError(fmt.Sprintf("Failed to launch console: %v", err))
	}
}

// stopScenario asks the agent to bring the running scenario down.
func (a *trayApp) stopScenario() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ComposeCommandTimeout)
	defer cancel()

	if _, err := a.client.StopScenario(ctx); err != nil {
		a.setError(fmt.Sprintf("Stop failed: %v", err))
	}

	// Refresh so the menu reflects the result promptly.
	time.Sleep(500 * time.Millisecond)
	a.refreshStatus()
}

func (a *trayApp) setError(msg string) {
	a.mu.Lock()
	a.lastError = msg
	a.updateUI()
	a.mu.Unlock()
}
