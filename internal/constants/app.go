package constants

import (
	"time"
)

// Agent launcher
const (
	// AgentBinaryBase - base name of the companion agent executable
	// Platform suffix (.exe) is appended on Windows at resolution time.
	AgentBinaryBase = "lise-agent"

	// AgentStartupWait - fixed pause between spawning the agent and the
	// single early-exit poll (2 seconds). Gives the agent time to fail fast
	// on port conflicts or missing runtime dependencies.
	AgentStartupWait = 2 * time.Second

	// DefaultDevUnnestDepth - parent directories to walk up from the
	// executable's directory in dev builds before descending to the agent.
	// The default of 3 undoes the build-output nesting the dev layout
	// produces (bin dir under two levels of build tree below the project
	// root). Overridable via desktop.ini [launcher] dev_unnest_depth.
	DefaultDevUnnestDepth = 3

	// DefaultDevAgentSubdir - relative path from the project root to the
	// built agent binary in dev layouts. Overridable via desktop.ini.
	DefaultDevAgentSubdir = "agent/dist"
)

// Agent endpoints
const (
	// AgentListenAddr - address the agent HTTP API binds to
	AgentListenAddr = "0.0.0.0:8000"

	// AgentLocalEndpoint - endpoint the console and tray use to reach a
	// local agent, and the endpoint named by the attach-mode startup log
	AgentLocalEndpoint = "http://127.0.0.1:8000"

	// OrchestratorPort - port the range orchestrator serves its API on
	OrchestratorPort = 8080

	// DisplayProxyPort - browser-facing port of the scenario display proxy
	DisplayProxyPort = 8081
)

// Scenario lifecycle
const (
	// ComposeFileName - name of the temp compose file written from the
	// scenario start request body, in the agent work directory
	ComposeFileName = "temp-compose.yaml"

	// ComposeCommandTimeout - ceiling for docker-compose up/down runs
	// (10 minutes). First-time image pulls dominate this.
	ComposeCommandTimeout = 10 * time.Minute

	// DisplayProxyStartupWait - pause between spawning websockify and its
	// single early-exit poll (1 second)
	DisplayProxyStartupWait = 1 * time.Second

	// LogFollowSettleDelay - wait before following compose logs (3 seconds),
	// letting containers produce their first lines
	LogFollowSettleDelay = 3 * time.Second
)

// Orchestrator client
const (
	// RegisterTimeout - timeout for the agent registration call (5 seconds)
	RegisterTimeout = 5 * time.Second

	// LogPostTimeout - per-line timeout for log forwarding (2 seconds).
	// Log delivery is best-effort; slow orchestrators drop lines rather
	// than stall the follower.
	LogPostTimeout = 2 * time.Second

	// MaxRetries - maximum number of retries for transient errors
	MaxRetries = 5

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	// Exponential backoff with jitter caps at this value
	RetryMaxDelay = 15 * time.Second
)

// Agent runtime
const (
	// ServerShutdownTimeout - drain window for the agent HTTP server (5 seconds)
	ServerShutdownTimeout = 5 * time.Second

	// StatusPollInterval - tray and console refresh interval for GET /api/status
	StatusPollInterval = 5 * time.Second

	// StatusRequestTimeout - timeout for a single status poll (3 seconds)
	StatusRequestTimeout = 3 * time.Second

	// DaemonStopWait - per-attempt wait while confirming daemon shutdown (500ms)
	DaemonStopWait = 500 * time.Millisecond

	// DaemonStopAttempts - attempts before giving up on daemon shutdown
	DaemonStopAttempts = 10
)

// WebSocket log stream
const (
	// WSClientSendBuffer - per-client outbound queue (64 lines); the hub
	// drops the oldest line when a slow client fills it
	WSClientSendBuffer = 64

	// WSWriteTimeout - per-message write deadline (10 seconds)
	WSWriteTimeout = 10 * time.Second

	// WSReconnectDelay - console wait before redialing the agent's log stream
	WSReconnectDelay = 5 * time.Second
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput subscribers (5000)
	EventBusMaxBuffer = 5000
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second
)

// UI Updates
const (
	// ProgressUpdateInterval - interval for progress bar updates (250ms)
	ProgressUpdateInterval = 250 * time.Millisecond

	// LogViewMaxLines - maximum scenario log lines retained by the console view
	LogViewMaxLines = 2000
)
