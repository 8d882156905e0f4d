package cli

import (
	"testing"
)

// TestConfigCmdChildren tests that the config group carries its subcommands.
func TestConfigCmdChildren(t *testing.T) {
	cmd := newConfigCmd()

	want := map[string]bool{"show": false, "set-proxy": false, "path": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("config subcommand '%s' not found", name)
		}
	}
}

// TestSetProxyFlags tests the flags of 'config set-proxy'.
func TestSetProxyFlags(t *testing.T) {
	cmd := newConfigSetProxyCmd()

	for _, flag := range []string{"mode", "host", "port", "user", "no-proxy", "warmup"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("--%s flag not found", flag)
		}
	}

	// The password never travels as a flag; it is prompted with echo off.
	if cmd.Flags().Lookup("password") != nil {
		t.Error("set-proxy must not accept a --password flag")
	}
}

// TestAddCommands tests that the root command carries the command groups.
func TestAddCommands(t *testing.T) {
	rootCmd := NewRootCmd()
	AddCommands(rootCmd)

	want := map[string]bool{"agent": false, "scenario": false, "config": false, "version": false}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command '%s' not found in root command", name)
		}
	}
}
