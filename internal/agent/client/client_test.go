package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lise-project/lise-desktop/internal/models"
)

func TestStatus(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.StatusResponse{
			Status:      "Idle",
			IsConnected: true,
		})
	}))
	defer ts.Close()

	status, err := New(ts.URL).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if gotPath != "/api/status" {
		t.Errorf("path = %q, want /api/status", gotPath)
	}
	if status.Status != "Idle" || !status.IsConnected {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestStartScenarioPassesBody(t *testing.T) {
	var got models.StartScenarioRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.ActionResponse{Status: "success", Message: "Scenario started."})
	}))
	defer ts.Close()

	resp, err := New(ts.URL).StartScenario(context.Background(), models.StartScenarioRequest{
		ScenarioName:       "web-lab",
		ComposeFileContent: "services:\n  web:\n    image: nginx\n",
		VNCPort:            5901,
	})
	if err != nil {
		t.Fatalf("StartScenario: %v", err)
	}
	if resp.Message != "Scenario started." {
		t.Errorf("message = %q", resp.Message)
	}
	if got.ScenarioName != "web-lab" || got.VNCPort != 5901 {
		t.Errorf("agent saw %+v", got)
	}
}

func TestErrorDetailDecoded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.ErrorResponse{Detail: "a scenario is already running: web-lab"})
	}))
	defer ts.Close()

	_, err := New(ts.URL).StopScenario(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.StatusCode)
	}
	if apiErr.Detail != "a scenario is already running: web-lab" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestErrorWithoutBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Status(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T (%v), want *APIError", err, err)
	}
	if apiErr.Detail != "Internal Server Error" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestUnreachableAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := New(url).Status(context.Background())
	if err == nil {
		t.Fatal("expected an error against a closed server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %v, want a not-reachable error", err)
	}
}

func TestStreamLogs(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/log-stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte("alpha"))
		conn.WriteMessage(websocket.TextMessage, []byte("beta"))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var mu sync.Mutex
	var lines []string
	err := New(ts.URL).StreamLogs(context.Background(), func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("StreamLogs: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "alpha" || lines[1] != "beta" {
		t.Errorf("lines = %v", lines)
	}
}

func TestStreamLogsCancelled(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/log-stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Hold the stream open without sending anything.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := New(ts.URL).StreamLogs(ctx, func(string) {})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
