package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os/exec"
	"strings"

	"github.com/lise-project/lise-desktop/internal/agent/scenario"
	"github.com/lise-project/lise-desktop/internal/models"
	"github.com/lise-project/lise-desktop/internal/version"
)

// defaultScenarioName keeps older orchestrator UIs working; they start
// scenarios without naming them.
const defaultScenarioName = "vm-scenario"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "lise-agent",
		"version": version.Version,
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req models.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrchestratorIP) == "" {
		s.writeError(w, http.StatusBadRequest, "orchestrator_ip is required")
		return
	}

	msg, err := s.svc.Connect(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to register with orchestrator")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, models.ActionResponse{Status: "success", Message: msg})
}

func (s *Server) handleScenarioStart(w http.ResponseWriter, r *http.Request) {
	var req models.StartScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ComposeFileContent == "" {
		s.writeError(w, http.StatusBadRequest, "compose_file_content is required")
		return
	}
	if req.VNCPort < 0 || req.VNCPort > 65535 {
		s.writeError(w, http.StatusBadRequest, "vnc_port must be between 0 and 65535")
		return
	}
	if strings.TrimSpace(req.ScenarioName) == "" {
		req.ScenarioName = defaultScenarioName
	}

	if err := s.svc.StartScenario(r.Context(), req); err != nil {
		s.log.Error().Err(err).Str("scenario", req.ScenarioName).Msg("Failed to start scenario")
		switch {
		case errors.Is(err, scenario.ErrInvalidCompose):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, scenario.ErrScenarioActive):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, exec.ErrNotFound):
			s.writeError(w, http.StatusInternalServerError, "docker-compose command not found.")
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, models.ActionResponse{Status: "success", Message: "Scenario started."})
}

func (s *Server) handleScenarioStop(w http.ResponseWriter, r *http.Request) {
	msg, err := s.svc.StopScenario(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to stop scenario")
		if errors.Is(err, exec.ErrNotFound) {
			s.writeError(w, http.StatusInternalServerError, "docker-compose command not found.")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, models.ActionResponse{Status: "success", Message: msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, models.ErrorResponse{Detail: detail})
}
