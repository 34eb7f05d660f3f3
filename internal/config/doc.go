// Package config provides configuration structures and utilities for the
// crawl service: global defaults, CLI-populated options, per-site crawl
// overrides loaded from a YAML file, and XDG directory resolution.
package config
