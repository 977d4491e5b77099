package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "pydistro" {
			t.Errorf("expected use 'pydistro', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		for name, short := range map[string]string{"verbose": "v", "config": "c", "log-format": ""} {
			flag := cmd.PersistentFlags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != short {
				t.Errorf("expected shorthand %q for %s, got %q", short, name, flag.Shorthand)
			}
		}
	})

	t.Run("has scrape flags", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"delay", "d", "0s"},
			{"timeout", "t", "0s"},
			{"history", "", "false"},
			{"json", "j", "false"},
			{"markdown", "m", "false"},
			{"output", "o", ""},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"report": false, "history": false, "init": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, []string{"fedora"}); err == nil {
			t.Error("expected error for positional argument")
		}
	})
}
