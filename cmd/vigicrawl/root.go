// Package main provides the entry point for the VigiCrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for VigiCrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vigicrawl",
		Short: "Website crawler for compliance audit sampling",
		Long: `VigiCrawl crawls public websites with a rendered browser, classifies the
discovered pages by purpose (homepage, contact, legal notices, ...) and
selects a small representative sample of pages for deep auditing.

Run "vigicrawl serve" to expose the crawl API over HTTP, or
"vigicrawl crawl <url>" for a one-shot crawl from the terminal.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewEraseCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
