package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written in the usual
// "1s" / "500ms" notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SiteConfig holds per-site crawl overrides for one origin host.
// Institutional sites vary widely in size and tolerance to crawling, so
// scoping and pacing can be tuned without changing global defaults.
type SiteConfig struct {
	// MaxDepth overrides the global crawl depth for this site.
	// If zero, the global value is used.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// MaxPages overrides the global discovery bound for this site.
	// If zero, the global value is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Delay overrides the inter-request delay for this site.
	// If zero, the global value is used.
	Delay Duration `yaml:"delay,omitempty"`

	// IncludePaths restricts crawling to URLs whose path starts with one
	// of these prefixes. Empty means all paths.
	IncludePaths []string `yaml:"includePaths,omitempty"`

	// ExcludePaths skips URLs whose path starts with any of these
	// prefixes.
	ExcludePaths []string `yaml:"excludePaths,omitempty"`
}

// File represents the structure of the .vigicrawl configuration file.
type File struct {
	// Sites maps origin hosts to their crawl overrides.
	// Keys are bare hosts (e.g. "www.exemple.fr"), no scheme.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to every site unless the
	// site-specific entry sets its own value.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for one origin host.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[host]; ok {
		if site.MaxDepth != 0 {
			result.MaxDepth = site.MaxDepth
		}
		if site.MaxPages != 0 {
			result.MaxPages = site.MaxPages
		}
		if site.Delay != 0 {
			result.Delay = site.Delay
		}
		if len(site.IncludePaths) > 0 {
			result.IncludePaths = site.IncludePaths
		}
		if len(site.ExcludePaths) > 0 {
			result.ExcludePaths = site.ExcludePaths
		}
	}

	return result
}
