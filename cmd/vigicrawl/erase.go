package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigicrawl/vigicrawl/internal/blob"
	"github.com/vigicrawl/vigicrawl/internal/config"
	"github.com/vigicrawl/vigicrawl/internal/database"
)

// errEraseNotConfirmed is returned when erase runs without --yes.
var errEraseNotConfirmed = errors.New("refusing to erase without --yes")

// NewEraseCmd creates the erase command.
func NewEraseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase all stored crawl data",
		Long: `Erase deletes every stored audit, crawl job, page record and screenshot.

This operation is irreversible and requires the --yes flag.

Examples:
  # Erase everything
  vigicrawl erase --yes`,
		Args: cobra.NoArgs,
		RunE: runEraseCmd,
	}

	defaults := config.NewConfig()
	cmd.Flags().BoolP("yes", "y", false,
		"Confirm the irreversible deletion of all crawl data")
	cmd.Flags().String("db-dir", defaults.DBDir,
		"Directory holding the crawl database")
	cmd.Flags().String("blob-dir", defaults.BlobDir,
		"Directory holding screenshot blobs")

	return cmd
}

// runEraseCmd executes the erase command.
func runEraseCmd(cmd *cobra.Command, _ []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}
	if !yes {
		return errEraseNotConfirmed
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	blobRoot, err := cmd.Flags().GetString("blob-dir")
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	blobs, err := blob.NewFS(blobRoot)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	// Blobs first: a re-run can still find the page rows that reference
	// any blobs a partial failure left behind.
	if err := blobs.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to erase screenshots: %w", err)
	}
	if err := store.EraseAll(ctx); err != nil {
		return fmt.Errorf("failed to erase database rows: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "All crawl data erased.")
	return nil
}
