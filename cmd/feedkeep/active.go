// ABOUTME: Active command for reading and setting the active feed pointer
// ABOUTME: Treats a dangling pointer as no selection rather than an error

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/canonical"
)

var activeCmd = &cobra.Command{
	Use:   "active [url]",
	Short: "Show or set the active feed",
	Long: `With no argument, show the currently active feed. With a URL,
mark that feed active. Use --none to clear the selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clear, _ := cmd.Flags().GetBool("none")

		if clear {
			prefStore.SetActiveFeed("")
			fmt.Println("Cleared active feed")
			return nil
		}

		if len(args) == 1 {
			key := canonical.Canonicalize(args[0])
			if key == "" {
				return fmt.Errorf("not a usable feed URL: %q", args[0])
			}
			// Membership is deliberately not enforced here; readers
			// resolve a dangling pointer to "none selected".
			prefStore.SetActiveFeed(key)
			fmt.Printf("Active feed: %s\n", key)
			return nil
		}

		sub := prefStore.ActiveSubscription()
		if sub == nil {
			fmt.Println("No active feed")
			return nil
		}
		if sub.Title != "" {
			fmt.Printf("Active feed: %s (%s)\n", sub.Title, sub.Key)
		} else {
			fmt.Printf("Active feed: %s\n", sub.Key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activeCmd)

	activeCmd.Flags().Bool("none", false, "clear the active feed selection")
}
