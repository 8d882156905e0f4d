// Package gui provides the desktop console for lise-desktop.
package gui

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/lise-project/lise-desktop/internal/agent/client"
	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/events"
	"github.com/lise-project/lise-desktop/internal/launcher"
	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/notify"
)

var (
	// guiLogger is the package-level logger for GUI mode; its lines are
	// mirrored onto the event bus for the log view
	guiLogger *logging.Logger
)

// LaunchGUI launches the desktop console: it runs the agent startup hook,
// then shows the window and starts the status poller and log stream.
func LaunchGUI() error {
	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	guiLogger = logging.NewLogger("gui", bus)

	// Set LISE_DEBUG=1 to see debug messages
	if os.Getenv("LISE_DEBUG") != "" {
		logging.SetGlobalLevel(zerolog.DebugLevel)
		guiLogger.Info().Msg("Debug logging enabled via LISE_DEBUG")
	}

	// Check for display on Linux
	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return fmt.Errorf("the console requires a display and none was detected.\n" +
				"DISPLAY and WAYLAND_DISPLAY are not set.\n" +
				"Use the CLI instead: lise-desktop --help")
		}
	}

	desktopCfg, err := config.LoadDesktopConfig("")
	if err != nil {
		guiLogger.Warn().Err(err).Msg("Could not load desktop config, using defaults")
		desktopCfg = config.NewDesktopConfig()
	}

	notifier := notify.NewNotifier(&notify.Config{
		Enabled:           desktopCfg.Notifications.Enabled,
		ShowLaunchFailure: desktopCfg.Notifications.ShowLaunchFailure,
	}, guiLogger)

	// Bring the local agent up (or skip, in attach mode) before the
	// window shows, so the first status poll has something to find.
	launcher.RunStartupHook(desktopCfg, guiLogger, notifier)

	myApp := app.NewWithID("org.lise.desktop")
	myApp.Settings().SetTheme(&liseTheme{})

	mainWindow := myApp.NewWindow("LISE Desktop")
	mainWindow.SetMaster()

	ui := NewUI(client.New(""), bus, mainWindow)

	mainWindow.SetContent(ui.Build())
	mainWindow.Resize(fyne.NewSize(920, 600))
	mainWindow.CenterOnScreen()

	ui.Start()

	mainWindow.SetOnClosed(func() {
		ui.Stop()
	})

	mainWindow.ShowAndRun()

	return nil
}

// UI wires the console's panels to the event bus and the agent client.
type UI struct {
	client *client.Client
	bus    *events.EventBus
	window fyne.Window

	statusPanel   *StatusPanel
	scenarioPanel *ScenarioPanel
	logPanel      *LogPanel
	poller        *StatusPoller

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUI creates the console UI against an agent client.
func NewUI(c *client.Client, bus *events.EventBus, window fyne.Window) *UI {
	ctx, cancel := context.WithCancel(context.Background())

	ui := &UI{
		client: c,
		bus:    bus,
		window: window,
		ctx:    ctx,
		cancel: cancel,
	}

	ui.statusPanel = NewStatusPanel()
	ui.scenarioPanel = NewScenarioPanel(ctx, c, window)
	ui.logPanel = NewLogPanel(window)
	ui.poller = NewStatusPoller(c, bus, guiLogger)

	return ui
}

// Build creates the window layout: status header and scenario controls on
// top, the log view filling the rest.
func (ui *UI) Build() fyne.CanvasObject {
	return container.NewBorder(
		container.NewVBox(
			ui.statusPanel,
			widget.NewSeparator(),
			ui.scenarioPanel.Build(),
			widget.NewSeparator(),
		),
		nil, nil, nil,
		ui.logPanel.Build(),
	)
}

// Start begins polling and event monitoring
func (ui *UI) Start() {
	go ui.poller.Run(ui.ctx)
	go followScenarioLogs(ui.ctx, ui.client, ui.bus, guiLogger)
	go ui.monitorStatus()
	go ui.monitorScenarios()
	go ui.monitorLogs()
}

// Stop cancels the monitors and closes the bus
func (ui *UI) Stop() {
	ui.cancel()
	if dropped := ui.bus.GetDroppedEventCount(); dropped > 0 {
		guiLogger.Debug().Int64("events", dropped).Msg("Event bus dropped events on full buffers")
	}
	ui.bus.Close()
}

func (ui *UI) monitorStatus() {
	ch := ui.bus.Subscribe(events.EventAgentStatus)
	defer ui.bus.Unsubscribe(events.EventAgentStatus, ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			status := event.(*events.AgentStatusEvent)
			// Both panels apply widget updates through fyne.Do internally.
			ui.statusPanel.Update(status)
			ui.scenarioPanel.Update(status)

		case <-ui.ctx.Done():
			return
		}
	}
}

func (ui *UI) monitorScenarios() {
	ch := ui.bus.Subscribe(events.EventScenario)
	defer ui.bus.Unsubscribe(events.EventScenario, ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			sc := event.(*events.ScenarioEvent)
			switch sc.Action {
			case events.ScenarioStarted:
				guiLogger.Infof("Scenario '%s' started", sc.Name)
			case events.ScenarioStopped:
				guiLogger.Infof("Scenario '%s' stopped", sc.Name)
			}

		case <-ui.ctx.Done():
			return
		}
	}
}

func (ui *UI) monitorLogs() {
	scenarioCh := ui.bus.Subscribe(events.EventScenarioLog)
	consoleCh := ui.bus.Subscribe(events.EventConsoleLog)
	defer ui.bus.Unsubscribe(events.EventScenarioLog, scenarioCh)
	defer ui.bus.Unsubscribe(events.EventConsoleLog, consoleCh)

	for {
		select {
		case event, ok := <-scenarioCh:
			if !ok {
				return
			}
			ui.logPanel.AddScenarioLine(event.(*events.ScenarioLogEvent).Line)

		case event, ok := <-consoleCh:
			if !ok {
				return
			}
			ui.logPanel.AddConsoleLine(event.(*events.ConsoleLogEvent).Line)

		case <-ui.ctx.Done():
			return
		}
	}
}
