package cli

import (
	"testing"
)

// TestStatusShortcut tests the status shortcut command
func TestStatusShortcut(t *testing.T) {
	cmd := newStatusShortcut()
	if cmd == nil {
		t.Fatal("newStatusShortcut() returned nil")
	}

	if cmd.Use != "status" {
		t.Errorf("Expected Use='status', got '%s'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description is empty")
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}
}

// TestLogsShortcut tests the logs shortcut command
func TestLogsShortcut(t *testing.T) {
	cmd := newLogsShortcut()
	if cmd == nil {
		t.Fatal("newLogsShortcut() returned nil")
	}

	if cmd.Use != "logs" {
		t.Errorf("Expected Use='logs', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}
}

// TestAddShortcuts tests that AddShortcuts adds commands to root
func TestAddShortcuts(t *testing.T) {
	rootCmd := NewRootCmd()
	AddShortcuts(rootCmd)

	expectedShortcuts := []string{"status", "logs"}
	foundShortcuts := make(map[string]bool)

	for _, cmd := range rootCmd.Commands() {
		foundShortcuts[cmd.Name()] = true
	}

	for _, expected := range expectedShortcuts {
		if !foundShortcuts[expected] {
			t.Errorf("Shortcut command '%s' not found in root command", expected)
		}
	}
}
