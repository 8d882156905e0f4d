package launcher

import (
	"errors"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/notify"
)

// RunStartupHook prepares the local agent when the desktop console starts.
//
// In launch mode it spawns the agent binary and verifies it survives its
// startup window. In attach mode nothing is spawned; the console assumes
// an agent is already listening on the local endpoint.
//
// Launch failures are logged and swallowed. The console starts either
// way so the user can fix the agent installation and relaunch, instead of
// being locked out of the UI entirely.
func RunStartupHook(cfg *config.DesktopConfig, log *logging.Logger, notifier *notify.Notifier) {
	if cfg.Launcher.LaunchMode == config.LaunchModeAttach {
		log.Infof("Agent launch skipped: attach mode assumes an agent is already running at %s", constants.AgentLocalEndpoint)
		return
	}

	l := New(&cfg.Launcher, log)
	pid, err := l.Launch()
	if err != nil {
		log.Error().Err(err).Msg("Failed to start agent")
		log.Infof("Ensure the agent is built and available, then restart the console")

		if notifier != nil {
			if errors.Is(err, ErrAgentNotFound) {
				notifier.AgentNotFound(l.AgentPath())
			} else {
				notifier.LaunchFailure(err.Error())
			}
		}
		return
	}

	log.Info().Int("pid", pid).Msg("Agent started successfully")
	log.Infof("Agent available at %s", constants.AgentLocalEndpoint)
}
