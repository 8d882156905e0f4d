// Package notify provides cross-platform desktop notifications for LISE Desktop.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/lise-project/lise-desktop/internal/logging"
)

// Notifier handles desktop notifications. Each notification category is
// gated by its Config flag, so callers never need to check settings
// before notifying.
type Notifier struct {
	logger *logging.Logger
	mu     sync.RWMutex
	cfg    Config
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowLaunchFailure shows notifications when the agent fails to launch.
	ShowLaunchFailure bool

	// ShowScenarioEvents shows notifications for scenario start/stop/failure.
	ShowScenarioEvents bool

	// ShowConnection shows notifications for orchestrator connection changes.
	ShowConnection bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:            true,
		ShowLaunchFailure:  true,
		ShowScenarioEvents: true,
		ShowConnection:     false, // Disabled by default to avoid spam
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Notifier{
		logger: logger,
		cfg:    *cfg,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg.Enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled
}

// should reports whether a category flag and the master switch both allow
// a notification.
func (n *Notifier) should(category bool) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled && category
}

// LaunchFailure sends a notification when the agent could not be started.
func (n *Notifier) LaunchFailure(errorMsg string) {
	if !n.should(n.cfg.ShowLaunchFailure) {
		return
	}

	title := "Agent Launch Failed"
	message := truncate(errorMsg, 120)

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send launch failure notification")
	}
}

// AgentNotFound sends a notification when the agent binary is missing.
func (n *Notifier) AgentNotFound(path string) {
	if !n.should(n.cfg.ShowLaunchFailure) {
		return
	}

	title := "Agent Launch Failed"
	message := fmt.Sprintf("Agent binary not found at:\n%s", shortenPath(path))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("path", path).Msg("Failed to send agent not found notification")
	}
}

// ScenarioStarted sends a notification when a scenario starts.
func (n *Notifier) ScenarioStarted(name string) {
	if !n.should(n.cfg.ShowScenarioEvents) {
		return
	}

	title := "Scenario Started"
	message := fmt.Sprintf("Scenario \"%s\" is running.", truncate(name, 40))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("scenario", name).Msg("Failed to send scenario started notification")
	}
}

// ScenarioStopped sends a notification when a scenario stops.
func (n *Notifier) ScenarioStopped(name string) {
	if !n.should(n.cfg.ShowScenarioEvents) {
		return
	}

	title := "Scenario Stopped"
	message := fmt.Sprintf("Scenario \"%s\" was stopped.", truncate(name, 40))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("scenario", name).Msg("Failed to send scenario stopped notification")
	}
}

// ScenarioFailed sends a notification when a scenario fails.
func (n *Notifier) ScenarioFailed(name string, errorMsg string) {
	if !n.should(n.cfg.ShowScenarioEvents) {
		return
	}

	title := "Scenario Failed"
	message := fmt.Sprintf("Scenario \"%s\" failed:\n%s", truncate(name, 40), truncate(errorMsg, 100))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("scenario", name).Msg("Failed to send scenario failed notification")
	}
}

// Connected sends a notification when the agent registers with an orchestrator.
func (n *Notifier) Connected(orchestratorIP string) {
	if !n.should(n.cfg.ShowConnection) {
		return
	}

	title := "LISE Desktop"
	message := fmt.Sprintf("Agent registered with orchestrator at %s.", orchestratorIP)

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send connected notification")
	}
}

// send is the internal method that actually sends the notification.
func (n *Notifier) send(title, message string) error {
	// beeep.Notify is cross-platform:
	// - Windows: Uses toast notifications
	// - macOS: Uses NSUserNotificationCenter
	// - Linux: Uses D-Bus notifications
	return beeep.Notify(title, message, "")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Try to show drive/root + ... + last 2 path components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))

	// Build shortened path
	short := filepath.Join("...", parentDir, file)

	// Add volume/drive if there's room
	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	// If still too long, just truncate
	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}

	return short
}

// Alert sends an alert notification (error level).
// This is for critical issues that require user attention.
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	title := "LISE Desktop Alert"

	// Use beeep.Alert which shows a more prominent notification on some platforms
	if err := beeep.Alert(title, message, ""); err != nil {
		// Fall back to regular notify
		if err := n.send(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// Beep sends an audible beep notification.
// Useful for drawing attention without a visual notification.
func (n *Notifier) Beep() {
	if !n.IsEnabled() {
		return
	}

	_ = beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}
