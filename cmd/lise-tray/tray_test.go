package main

import (
	"strings"
	"testing"

	"github.com/lise-project/lise-desktop/internal/models"
)

func strptr(s string) *string { return &s }

func TestTooltipText(t *testing.T) {
	tests := []struct {
		name      string
		agentUp   bool
		status    *models.StatusResponse
		lastError string
		want      []string
		notWant   []string
	}{
		{
			name:    "agent down",
			agentUp: false,
			want:    []string{"Agent: Not Running"},
			notWant: []string{"Last error"},
		},
		{
			name:    "idle agent",
			agentUp: true,
			status:  &models.StatusResponse{Status: "idle"},
			want:    []string{"Agent: idle"},
		},
		{
			name:    "connected with scenario",
			agentUp: true,
			status: &models.StatusResponse{
				Status:          "running",
				OrchestratorIP:  strptr("10.0.4.17"),
				CurrentScenario: strptr("phishing-drill"),
			},
			want: []string{"Orchestrator: 10.0.4.17", "Scenario: phishing-drill"},
		},
		{
			name:      "error shown while agent up",
			agentUp:   true,
			status:    &models.StatusResponse{Status: "idle"},
			lastError: "Stop failed: connection refused",
			want:      []string{"Last error: Stop failed: connection refused"},
		},
		{
			name:      "error shown while agent down",
			agentUp:   false,
			lastError: "agent API not responding",
			want:      []string{"Agent: Not Running", "Last error: agent API not responding"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tooltipText(tt.agentUp, tt.status, tt.lastError)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("tooltip %q missing %q", got, want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("tooltip %q unexpectedly contains %q", got, notWant)
				}
			}
		})
	}
}

func TestTooltipTextTruncatesLongError(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := tooltipText(false, nil, long)

	lines := strings.Split(got, "\n")
	errLine := lines[len(lines)-1]
	if !strings.HasPrefix(errLine, "Last error: ") {
		t.Fatalf("last line = %q, want the error line", errLine)
	}
	msg := strings.TrimPrefix(errLine, "Last error: ")
	if len(msg) != maxTooltipErrorLen {
		t.Errorf("error length = %d, want %d", len(msg), maxTooltipErrorLen)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Errorf("truncated error %q should end with ellipsis", msg)
	}
}

func TestStatusText(t *testing.T) {
	if got := statusText(false, nil); got != "Status: Agent Not Running" {
		t.Errorf("statusText(down) = %q", got)
	}
	if got := statusText(true, &models.StatusResponse{Status: "idle"}); got != "Status: idle" {
		t.Errorf("statusText(idle) = %q", got)
	}
	got := statusText(true, &models.StatusResponse{
		Status:          "running",
		CurrentScenario: strptr("ransomware-tabletop"),
	})
	if got != "Status: running 'ransomware-tabletop'" {
		t.Errorf("statusText(scenario) = %q", got)
	}
}
