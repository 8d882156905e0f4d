package gui

import (
	"context"
	"time"

	"github.com/lise-project/lise-desktop/internal/agent/client"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/events"
	"github.com/lise-project/lise-desktop/internal/logging"
)

// StatusPoller feeds the event bus with the agent's state, polling
// GET /api/status on a fixed interval. A failed poll is published as a
// not-running status so the UI shows the outage instead of stale data.
type StatusPoller struct {
	client *client.Client
	bus    *events.EventBus
	log    *logging.Logger

	// previous poll, for transition detection
	polled       bool
	wasUp        bool
	lastScenario string
}

// NewStatusPoller creates a poller publishing on bus.
func NewStatusPoller(c *client.Client, bus *events.EventBus, log *logging.Logger) *StatusPoller {
	return &StatusPoller{client: c, bus: bus, log: log}
}

// Run polls until ctx is cancelled. The first poll happens immediately so
// the UI does not sit in its waiting state for a full interval.
func (p *StatusPoller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(constants.StatusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *StatusPoller) poll(ctx context.Context) {
	st, err := p.client.Status(ctx)
	if err != nil {
		if p.wasUp || !p.polled {
			p.log.Warn().Err(err).Msg("Agent is not responding")
		}
		p.record(false, "")
		p.bus.Publish(&events.AgentStatusEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventAgentStatus, Time: time.Now()},
			Running:   false,
		})
		return
	}

	ev := &events.AgentStatusEvent{
		BaseEvent:     events.BaseEvent{EventType: events.EventAgentStatus, Time: time.Now()},
		Running:       true,
		Connected:     st.IsConnected,
		StatusMessage: st.Status,
	}
	if st.DisplayName != nil {
		ev.DisplayName = *st.DisplayName
	}
	if st.OrchestratorIP != nil {
		ev.OrchestratorIP = *st.OrchestratorIP
	}
	if st.CurrentScenario != nil {
		ev.Scenario = *st.CurrentScenario
	}

	if !p.wasUp {
		p.log.Info().Str("status", st.Status).Msg("Agent is up")
	}

	// Scenario transitions come out of polling deltas; the agent has no
	// push channel for them. After an outage only a start is reported,
	// since what happened while the agent was away is unknown.
	switch {
	case ev.Scenario != "" && p.lastScenario == "":
		p.bus.PublishScenario(events.ScenarioStarted, ev.Scenario)
	case ev.Scenario == "" && p.lastScenario != "" && p.wasUp:
		p.bus.PublishScenario(events.ScenarioStopped, p.lastScenario)
	}

	p.record(true, ev.Scenario)
	p.bus.Publish(ev)
}

func (p *StatusPoller) record(up bool, scenario string) {
	p.polled = true
	p.wasUp = up
	p.lastScenario = scenario
}

// followScenarioLogs keeps a subscription to the agent's log stream alive,
// publishing each line on the bus. The agent accepts stream clients whether
// or not a scenario runs, so one long-lived connection is enough; dial
// failures are retried because the agent may simply not be up yet.
func followScenarioLogs(ctx context.Context, c *client.Client, bus *events.EventBus, log *logging.Logger) {
	for {
		err := c.StreamLogs(ctx, bus.PublishScenarioLog)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Debug().Err(err).Msg("Log stream disconnected, retrying")
		}

		select {
		case <-time.After(constants.WSReconnectDelay):
		case <-ctx.Done():
			return
		}
	}
}
