package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies the documented defaults. Changes to defaults
// should be intentional, so the test names the expected values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default ListenAddr is :8087", func(t *testing.T) {
		t.Parallel()
		if cfg.ListenAddr != ":8087" {
			t.Errorf("expected ListenAddr to be ':8087', got '%s'", cfg.ListenAddr)
		}
	})

	t.Run("default MaxDepth is 3", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 3 {
			t.Errorf("expected MaxDepth to be 3, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default MaxPages is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 100 {
			t.Errorf("expected MaxPages to be 100, got %d", cfg.MaxPages)
		}
	})

	t.Run("default CrawlDelay is 1 second", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDelay != time.Second {
			t.Errorf("expected CrawlDelay to be 1s, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("default NavigationTimeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.NavigationTimeout != 30*time.Second {
			t.Errorf("expected NavigationTimeout to be 30s, got %v", cfg.NavigationTimeout)
		}
	})

	t.Run("default Concurrency is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 2 {
			t.Errorf("expected Concurrency to be 2, got %d", cfg.Concurrency)
		}
	})

	t.Run("blob dir lives under data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.BlobDir != filepath.Join(XDGDataDir(), "screenshots") {
			t.Errorf("unexpected BlobDir: %s", cfg.BlobDir)
		}
	})
}

// TestConfigValidate tests each validation rule in isolation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty listen address", func(c *Config) { c.ListenAddr = "" }, ErrInvalidListenAddr},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, ErrInvalidMaxDepth},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"negative delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"zero navigation timeout", func(c *Config) { c.NavigationTimeout = 0 }, ErrInvalidTimeout},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero depth is valid", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.MaxDepth = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("depth 0 should be valid, got %v", err)
		}
	})
}

// TestLoadConfigFile verifies YAML loading and the merge of per-site
// overrides with defaults.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [broken"), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("site overrides merged over defaults", func(t *testing.T) {
		t.Parallel()

		content := `
defaults:
  maxDepth: 2
  delay: 2s
  excludePaths:
    - /intranet
sites:
  www.exemple.fr:
    maxPages: 30
    includePaths:
      - /demarches
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load file: %v", err)
		}

		site := cf.GetSiteConfig("www.exemple.fr")
		if site.MaxDepth != 2 {
			t.Errorf("MaxDepth = %d, want inherited 2", site.MaxDepth)
		}
		if site.MaxPages != 30 {
			t.Errorf("MaxPages = %d, want 30", site.MaxPages)
		}
		if site.Delay.Std() != 2*time.Second {
			t.Errorf("Delay = %v, want inherited 2s", site.Delay)
		}
		if len(site.IncludePaths) != 1 || site.IncludePaths[0] != "/demarches" {
			t.Errorf("IncludePaths = %v", site.IncludePaths)
		}
		if len(site.ExcludePaths) != 1 || site.ExcludePaths[0] != "/intranet" {
			t.Errorf("ExcludePaths = %v, want inherited", site.ExcludePaths)
		}

		unknown := cf.GetSiteConfig("autre.fr")
		if unknown.MaxDepth != 2 || unknown.MaxPages != 0 {
			t.Errorf("unknown host should get defaults only, got %+v", unknown)
		}
	})
}

// TestFindConfigFile verifies the search order.
func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte("sites: {}"), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path yields empty", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "absent.yml")); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
