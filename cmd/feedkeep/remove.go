// ABOUTME: Remove command for unsubscribing from a feed
// ABOUTME: Accepts either the original URL or the canonical key

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/canonical"
)

var removeCmd = &cobra.Command{
	Use:     "remove <url>",
	Aliases: []string{"rm"},
	Short:   "Remove a feed subscription",
	Long:    "Remove a subscription by URL or canonical key. The active feed pointer is left alone; a dangling pointer reads as no selection.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := canonical.Canonicalize(args[0])
		if key == "" {
			return fmt.Errorf("not a usable feed URL: %q", args[0])
		}

		if !prefStore.RemoveSubscription(key) {
			return fmt.Errorf("no subscription found for: %s", key)
		}

		fmt.Printf("Removed subscription: %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
