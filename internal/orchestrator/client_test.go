package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lise-project/lise-desktop/internal/logging"
)

func discardLogger() *logging.Logger {
	log := logging.NewDefaultCLILogger()
	log.SetOutput(io.Discard)
	return log
}

func TestBaseURL(t *testing.T) {
	got := BaseURL("192.168.1.50")
	want := "http://192.168.1.50:8080"
	if got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
}

func TestRegister(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]string

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding register body: %v", err)
		}
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	err = client.Register(context.Background(), RegisterRequest{
		DisplayName: "lab-agent-01",
		IPAddress:   "192.168.1.77",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if gotMethod != nethttp.MethodPost {
		t.Errorf("register method = %s, want POST", gotMethod)
	}
	if gotPath != "/api/agents/register" {
		t.Errorf("register path = %s, want /api/agents/register", gotPath)
	}
	if gotBody["display_name"] != "lab-agent-01" {
		t.Errorf("display_name = %q, want lab-agent-01", gotBody["display_name"])
	}
	if gotBody["ip_address"] != "192.168.1.77" {
		t.Errorf("ip_address = %q, want 192.168.1.77", gotBody["ip_address"])
	}
}

func TestRegisterRejected(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusConflict)
		_, _ = w.Write([]byte("agent name already registered"))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	err = client.Register(context.Background(), RegisterRequest{DisplayName: "dup", IPAddress: "10.0.0.1"})
	if err == nil {
		t.Fatal("Register() error = nil, want rejection")
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("Register() error = %q, want status 409 in message", err)
	}
	if !strings.Contains(err.Error(), "agent name already registered") {
		t.Errorf("Register() error = %q, want orchestrator body in message", err)
	}
}

func TestPostLog(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding log body: %v", err)
		}
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	err = client.PostLog(context.Background(), LogEntry{
		AgentName: "lab-agent-01",
		LogLine:   "web-1  | GET /login 200",
	})
	if err != nil {
		t.Fatalf("PostLog() error: %v", err)
	}

	if gotPath != "/api/log" {
		t.Errorf("log path = %s, want /api/log", gotPath)
	}
	if gotBody["agent_name"] != "lab-agent-01" {
		t.Errorf("agent_name = %q, want lab-agent-01", gotBody["agent_name"])
	}
	if gotBody["log_line"] != "web-1  | GET /login 200" {
		t.Errorf("log_line = %q, want original line", gotBody["log_line"])
	}
}

func TestPostLogServerError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	err = client.PostLog(context.Background(), LogEntry{AgentName: "a", LogLine: "l"})
	if err == nil {
		t.Fatal("PostLog() error = nil, want status failure")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("PostLog() error = %q, want status 500 in message", err)
	}
}

func TestRetryLoggerWritesThroughAppLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewDefaultCLILogger()
	log.SetOutput(&buf)

	rl := &retryLogger{log: log}
	rl.Warn("retrying request", "error", "connection refused")
	rl.Error("request failed", "url", "http://10.0.0.5:8080/api/agents/register")

	out := buf.String()
	if !strings.Contains(out, "retrying request") {
		t.Errorf("warn output = %q, want the retry message", out)
	}
	if !strings.Contains(out, "connection refused") {
		t.Errorf("warn output = %q, want the key/value detail", out)
	}
	if !strings.Contains(out, "request failed") {
		t.Errorf("error output = %q, want the error message", out)
	}
}
