// ABOUTME: Root Cobra command and global flags
// ABOUTME: Sets up CLI structure, opens storage, and constructs the store

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/config"
	"github.com/harper/feedkeep/internal/store"
)

var (
	backendFlag    string
	dataDirFlag    string
	prefStore      *store.Store
	backendStorage store.Storage
)

// hydrateTimeout bounds how long a command waits for the initial load.
const hydrateTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "feedkeep",
	Short: "Feed subscription registry with OPML import/export",
	Long: `Manage a deduplicated set of feed subscriptions.

Equivalent URLs (http vs https, trailing slashes, percent-encoding)
collapse to one subscription. Import and export the whole set as OPML
to move between readers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}

		storage, err := cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		backendStorage = storage
		prefStore = store.New(storage)

		// Commands read and mutate the set, so wait out hydration here.
		// A broken backend hydrates empty rather than failing.
		ctx, cancel := context.WithTimeout(cmd.Context(), hydrateTimeout)
		defer cancel()
		if err := prefStore.WaitHydrated(ctx); err != nil {
			return fmt.Errorf("timed out loading subscriptions: %w", err)
		}
		prefStore.SetInitialized(true)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if prefStore != nil {
			if err := prefStore.Close(); err != nil {
				return fmt.Errorf("failed to close store: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: file or charm (default from config)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory for the file backend (default: ~/.local/share/feedkeep)")
}
