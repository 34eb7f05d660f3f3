package main

import (
	"testing"

	"github.com/vigicrawl/vigicrawl/internal/config"
)

// TestNewServeCmd tests the serve command creation.
func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "serve" {
			t.Errorf("expected use 'serve', got %q", cmd.Use)
		}
	})

	t.Run("has listen flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("listen")
		if flag == nil {
			t.Fatal("expected listen flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultListenAddr {
			t.Errorf("expected default %q, got %q", config.DefaultListenAddr, flag.DefValue)
		}
	})

	t.Run("has concurrency flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("concurrency")
		if flag == nil {
			t.Fatal("expected concurrency flag")
		}
	})

	t.Run("has shared crawl flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"depth", "max-pages", "delay", "timeout", "respect-robots", "skip-probe", "config", "user-agent"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %q flag", name)
			}
		}
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		t.Parallel()
		cmd := NewServeCmd()
		cmd.SetArgs([]string{"unexpected"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for positional argument")
		}
	})
}

// TestServeInvalidConcurrency verifies configuration validation runs
// before any server starts.
func TestServeInvalidConcurrency(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	cmd.SetArgs([]string{"--concurrency", "0", "--skip-probe"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected configuration error for zero concurrency")
	}
}
