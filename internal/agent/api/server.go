// Package api exposes the agent's HTTP surface: scenario control, the
// status endpoint, and the websocket log stream.
package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/models"
)

// AgentService is the behavior the HTTP layer fronts. The agent service
// implements it; handler tests substitute a stub.
type AgentService interface {
	// Connect registers the agent with an orchestrator and returns the
	// resulting status message.
	Connect(ctx context.Context, req models.ConnectRequest) (string, error)
	// StartScenario brings a scenario up.
	StartScenario(ctx context.Context, req models.StartScenarioRequest) error
	// StopScenario brings the running scenario down. The message
	// distinguishes a real stop from an idempotent no-op.
	StopScenario(ctx context.Context) (string, error)
	// Status reports the agent's current state.
	Status() models.StatusResponse
}

// Server serves the agent API.
type Server struct {
	log    *logging.Logger
	svc    AgentService
	hub    *Hub
	router *mux.Router
	srv    *http.Server
}

// NewServer wires the routes and middleware. The hub must be running
// before the first websocket client connects.
func NewServer(listenAddr string, svc AgentService, hub *Hub, log *logging.Logger) *Server {
	s := &Server{log: log, svc: svc, hub: hub}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/api/connect", s.handleConnect).Methods("POST")
	r.HandleFunc("/api/scenario/start", s.handleScenarioStart).Methods("POST")
	r.HandleFunc("/api/scenario/stop", s.handleScenarioStop).Methods("POST")
	r.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/ws/log-stream", hub.ServeWS).Methods("GET")
	r.Use(requestLogger(log))

	s.router = r
	s.srv = &http.Server{
		Addr:    listenAddr,
		Handler: r,
	}
	return s
}

// Handler returns the routed handler, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API. A close triggered by Shutdown
// is not an error.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("Agent API listening")
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// statusRecorder captures the response code for the request log. It
// forwards Hijack so the websocket upgrade keeps working behind the
// middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func requestLogger(log *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}
