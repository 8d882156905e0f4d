// Package models defines data structures shared by the agent API and its
// clients.
package models

// ConnectRequest asks the agent to register itself with an orchestrator.
type ConnectRequest struct {
	DisplayName    string `json:"display_name"`
	OrchestratorIP string `json:"orchestrator_ip"`
}

// StartScenarioRequest carries an inline compose definition to run.
type StartScenarioRequest struct {
	ScenarioName       string `json:"scenario_name"`
	ComposeFileContent string `json:"compose_file_content"`
	VNCPort            int    `json:"vnc_port"`
}

// StatusResponse is the agent status snapshot.
//
// DisplayName, OrchestratorIP, and CurrentScenario are null until the
// agent connects or a scenario starts, so UI clients can distinguish
// "never set" from empty.
type StatusResponse struct {
	Status          string  `json:"status"`
	IsConnected     bool    `json:"is_connected"`
	DisplayName     *string `json:"display_name"`
	OrchestratorIP  *string `json:"orchestrator_ip"`
	CurrentScenario *string `json:"current_scenario"`
}

// ActionResponse acknowledges a connect/start/stop action.
type ActionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the error body for all non-2xx agent API responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
