// ABOUTME: Clear command for wiping the subscription set
// ABOUTME: Requires --force to guard against accidental data loss

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/charm"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all subscriptions",
	Long: `Remove every subscription and the active feed pointer from memory and storage.

With --wipe on the charm backend, also reset the local database after
the cleared state syncs, rebuilding it from the cloud.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		wipe, _ := cmd.Flags().GetBool("wipe")
		if !force && !wipe {
			return fmt.Errorf("refusing to clear %d subscription(s) without --force", prefStore.Subscriptions().Len())
		}

		if wipe {
			return wipeCharm()
		}

		prefStore.Clear()
		fmt.Println("Cleared all subscriptions")
		return nil
	},
}

// wipeCharm clears the set, drains the deletes without a sync per write,
// pushes the empty state once, and resets the local charm database.
func wipeCharm() error {
	cs, ok := backendStorage.(*charm.Storage)
	if !ok {
		return fmt.Errorf("--wipe requires the charm backend; the file backend needs only --force")
	}

	prefStore.Clear()

	cs.SetAutoSync(false)
	if err := prefStore.Close(); err != nil {
		return fmt.Errorf("failed to flush cleared state: %w", err)
	}
	cs.SetAutoSync(true)

	if err := cs.Sync(); err != nil {
		return fmt.Errorf("failed to sync cleared state: %w", err)
	}
	if err := cs.Reset(); err != nil {
		return fmt.Errorf("failed to reset local database: %w", err)
	}

	fmt.Println("Cleared all subscriptions and reset the local database")
	return nil
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().Bool("force", false, "actually clear all subscriptions")
	clearCmd.Flags().Bool("wipe", false, "also reset the local charm database (charm backend only)")
}
