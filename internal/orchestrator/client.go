// Package orchestrator talks to the central LISE orchestrator on behalf
// of the agent: registration when a console connects, and best-effort
// relay of scenario log lines.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/http"
	"github.com/lise-project/lise-desktop/internal/logging"
)

// retryLogger adapts the application logger to retryablehttp's
// LeveledLogger so retry warnings land in the same zerolog stream as
// everything else. Retry chatter below warn level stays at debug.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

// RegisterRequest is the agent registration payload.
type RegisterRequest struct {
	DisplayName string `json:"display_name"`
	IPAddress   string `json:"ip_address"`
}

// LogEntry is a single scenario log line relayed to the orchestrator.
type LogEntry struct {
	AgentName string `json:"agent_name"`
	LogLine   string `json:"log_line"`
}

// BaseURL builds the orchestrator endpoint for a host the user typed in.
func BaseURL(orchestratorIP string) string {
	return fmt.Sprintf("http://%s:%d", orchestratorIP, constants.OrchestratorPort)
}

// Client represents the orchestrator API client.
//
// Registration goes through a retry-wrapped client so transient lab
// network hiccups don't fail the connect flow. Log posts use a plain
// streaming client: each line is best-effort and the next line is always
// right behind it, so retrying stale lines is worse than dropping them.
type Client struct {
	httpClient *nethttp.Client
	logClient  *nethttp.Client
	baseURL    string
}

// NewClient creates an orchestrator client for the given base URL.
// Retry warnings from the registration client go through log.
func NewClient(baseURL string, proxyCfg *config.ProxyConfig, log *logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewDefaultCLILogger()
	}
	var base *nethttp.Client
	if proxyCfg != nil {
		var err error
		base, err = http.ConfigureHTTPClient(proxyCfg, baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
		}
	} else {
		base = &nethttp.Client{}
	}

	// Wrap with retry logic
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = constants.MaxRetries
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	retryClient.Logger = &retryLogger{log: log}

	logClient, err := http.CreateStreamingClient(proxyCfg, "")
	if err != nil {
		return nil, fmt.Errorf("failed to configure log client: %w", err)
	}

	return &Client{
		httpClient: retryClient.StandardClient(),
		logClient:  logClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Register announces this agent to the orchestrator.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	resp, err := c.doJSON(ctx, c.httpClient, "/api/agents/register", req)
	if err != nil {
		return fmt.Errorf("registration request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("registration failed: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// PostLog relays one scenario log line. Each post carries its own short
// timeout so a slow orchestrator can't stall the log stream.
func (c *Client) PostLog(ctx context.Context, entry LogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, constants.LogPostTimeout)
	defer cancel()

	resp, err := c.doJSON(ctx, c.logClient, "/api/log", entry)
	if err != nil {
		return fmt.Errorf("log post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("log post failed: status %d", resp.StatusCode)
	}

	// Drain so the connection is reused for the next line
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return nil
}

// doJSON posts a JSON body to an orchestrator path.
func (c *Client) doJSON(ctx context.Context, client *nethttp.Client, path string, body interface{}) (*nethttp.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.baseURL + path
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// RegisterTimeout returns a context bounded by the registration window.
func RegisterTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.RegisterTimeout)
}
