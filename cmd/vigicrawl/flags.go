package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vigicrawl/vigicrawl/internal/config"
	"github.com/vigicrawl/vigicrawl/internal/log"
)

// addCrawlFlags registers the flags shared by the serve and crawl commands.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum breadth-first crawl depth (0 crawls only the seed page)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages discovered per crawl job")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between page fetches within one job")
	cmd.Flags().DurationP("timeout", "t", config.DefaultNavigationTimeout,
		"Timeout for a single rendered page load")
	cmd.Flags().Bool("respect-robots", false,
		"Honor robots.txt disallow rules while crawling")
	cmd.Flags().Bool("skip-probe", false,
		"Skip the pre-submission liveness probe")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .vigicrawl in current or home directory)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent by the rendering browser")
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.NavigationTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RespectRobots, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}

	cfg.SkipProbe, err = cmd.Flags().GetBool("skip-probe")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load per-site overrides from the config file.
	// If the user explicitly specified a path, a missing file is an error.
	// Otherwise a missing file silently means no overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the structured logger. Secrets such as bearer
// tokens are masked before they reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}
