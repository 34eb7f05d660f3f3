package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigicrawl/vigicrawl/internal/config"
)

// newFlagTestCmd builds a throwaway command carrying the shared crawl flags.
func newFlagTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	addCrawlFlags(cmd)
	return cmd
}

func TestBuildConfigDefaults(t *testing.T) {
	t.Parallel()

	cmd := newFlagTestCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.MaxDepth != config.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", cfg.MaxDepth, config.DefaultMaxDepth)
	}
	if cfg.MaxPages != config.DefaultMaxPages {
		t.Errorf("MaxPages = %d, want %d", cfg.MaxPages, config.DefaultMaxPages)
	}
	if cfg.CrawlDelay != config.DefaultCrawlDelay {
		t.Errorf("CrawlDelay = %s, want %s", cfg.CrawlDelay, config.DefaultCrawlDelay)
	}
	if cfg.RespectRobots {
		t.Error("RespectRobots should default to false")
	}
	if cfg.SiteConfigs == nil {
		t.Error("SiteConfigs should never be nil")
	}
}

func TestBuildConfigOverrides(t *testing.T) {
	t.Parallel()

	cmd := newFlagTestCmd()
	args := []string{
		"-d", "1",
		"-p", "25",
		"--delay", "250ms",
		"-t", "10s",
		"--respect-robots",
		"--skip-probe",
		"--user-agent", "AuditBot/2.0",
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", cfg.MaxDepth)
	}
	if cfg.MaxPages != 25 {
		t.Errorf("MaxPages = %d, want 25", cfg.MaxPages)
	}
	if cfg.CrawlDelay != 250*time.Millisecond {
		t.Errorf("CrawlDelay = %s, want 250ms", cfg.CrawlDelay)
	}
	if cfg.NavigationTimeout != 10*time.Second {
		t.Errorf("NavigationTimeout = %s, want 10s", cfg.NavigationTimeout)
	}
	if !cfg.RespectRobots {
		t.Error("RespectRobots should be true")
	}
	if !cfg.SkipProbe {
		t.Error("SkipProbe should be true")
	}
	if cfg.UserAgent != "AuditBot/2.0" {
		t.Errorf("UserAgent = %q, want AuditBot/2.0", cfg.UserAgent)
	}
}

func TestBuildConfigConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := newFlagTestCmd()
		if err := cmd.ParseFlags([]string{"-c", "/nonexistent/.vigicrawl"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildConfig(cmd)
		if err == nil {
			t.Fatal("expected error for missing explicit config file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})

	t.Run("explicit file is loaded", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".vigicrawl")
		content := "sites:\n  www.exemple.fr:\n    maxPages: 40\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := newFlagTestCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}

		site := cfg.SiteConfigs.GetSiteConfig("www.exemple.fr")
		if site.MaxPages != 40 {
			t.Errorf("site maxPages = %d, want 40", site.MaxPages)
		}
	})
}
