package gui

import (
	"fmt"
	"testing"
	"time"
)

func TestFormatLine(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	scenario := logLine{when: when, source: sourceScenario, text: "web-1  | listening on :80"}
	if got := formatLine(scenario); got != "09:26:53 web-1  | listening on :80" {
		t.Errorf("Unexpected scenario line: %q", got)
	}

	// Console lines are already rendered by the logger and pass through
	console := logLine{when: when, source: sourceConsole, text: "09:26:53 INF Agent is up"}
	if got := formatLine(console); got != "09:26:53 INF Agent is up" {
		t.Errorf("Unexpected console line: %q", got)
	}
}

func TestFilterLines(t *testing.T) {
	now := time.Now()
	lines := []logLine{
		{when: now, source: sourceScenario, text: "db-1   | ready for connections"},
		{when: now, source: sourceScenario, text: "web-1  | listening on :80"},
		{when: now, source: sourceConsole, text: "10:00:00 INF Agent is up"},
	}

	tests := []struct {
		name   string
		source string
		search string
		want   int
	}{
		{"all sources no search", "All Sources", "", 3},
		{"scenario only", "Scenario", "", 2},
		{"console only", "Console", "", 1},
		{"search matches one", "All Sources", "listening", 1},
		{"search is case-insensitive", "All Sources", "READY", 1},
		{"search respects source filter", "Console", "listening", 0},
		{"no matches", "All Sources", "no-such-text", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterLines(lines, tt.source, tt.search)
			if len(got) != tt.want {
				t.Errorf("filterLines(%q, %q) returned %d lines, want %d",
					tt.source, tt.search, len(got), tt.want)
			}
		})
	}
}

func TestAppendCappedDropsOldest(t *testing.T) {
	var lines []logLine
	for i := 0; i < 10; i++ {
		lines = appendCapped(lines, logLine{text: fmt.Sprintf("line-%d", i)}, 4)
	}

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines after capping, got %d", len(lines))
	}
	if lines[0].text != "line-6" {
		t.Errorf("Expected oldest surviving line to be line-6, got %q", lines[0].text)
	}
	if lines[3].text != "line-9" {
		t.Errorf("Expected newest line to be line-9, got %q", lines[3].text)
	}
}
