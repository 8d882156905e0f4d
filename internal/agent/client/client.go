// Package client provides an HTTP client for a running agent's API.
// The CLI, the tray, and the console poll and drive the agent through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/models"
)

// APIError is a decoded error response from the agent API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Client talks to an agent's HTTP API.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New creates a client for the agent at baseURL. An empty baseURL means
// the local agent endpoint.
//
// The underlying HTTP client carries no global timeout: scenario start
// blocks for as long as the compose bring-up runs. Callers bound
// individual calls through ctx.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = constants.AgentLocalEndpoint
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
	}
}

// Status fetches the agent status. The request is bounded by
// constants.StatusRequestTimeout on top of ctx.
func (c *Client) Status(ctx context.Context) (*models.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StatusRequestTimeout)
	defer cancel()

	var out models.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Connect asks the agent to register with an orchestrator.
func (c *Client) Connect(ctx context.Context, req models.ConnectRequest) (*models.ActionResponse, error) {
	var out models.ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/connect", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartScenario submits a scenario to the agent and blocks until the
// containers are up or the bring-up failed.
func (c *Client) StartScenario(ctx context.Context, req models.StartScenarioRequest) (*models.ActionResponse, error) {
	var out models.ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/scenario/start", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopScenario brings the running scenario down. Stopping when nothing
// runs is not an error; the response message says so.
func (c *Client) StopScenario(ctx context.Context) (*models.ActionResponse, error) {
	var out models.ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/scenario/stop", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StreamLogs attaches to the agent's log websocket and delivers each
// line to sink until ctx is cancelled or the agent closes the stream.
func (c *Client) StreamLogs(ctx context.Context, sink func(line string)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws/log-stream"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to open log stream at %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Closing the connection is the only way to unblock ReadMessage
	// when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("log stream ended: %w", err)
		}
		sink(string(msg))
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("agent is not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read agent response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr models.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Detail != "" {
			return &APIError{StatusCode: resp.StatusCode, Detail: apiErr.Detail}
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: http.StatusText(resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode agent response: %w", err)
		}
	}
	return nil
}
