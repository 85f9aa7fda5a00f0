// ABOUTME: Add command for subscribing to a feed URL
// ABOUTME: Optionally resolves a site URL to its feed via autodiscovery

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/canonical"
	"github.com/harper/feedkeep/internal/discover"
	"github.com/harper/feedkeep/internal/registry"
)

var addCmd = &cobra.Command{
	Use:     "add <url>",
	Aliases: []string{"a"},
	Short:   "Add a feed subscription",
	Long:    "Add a feed URL to the subscription set. Equivalent URLs collapse to one subscription.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL := args[0]
		title, _ := cmd.Flags().GetString("title")
		useDiscover, _ := cmd.Flags().GetBool("discover")

		if useDiscover {
			found, err := discover.Discover(cmd.Context(), rawURL)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}
			rawURL = found.URL
			if title == "" {
				title = found.Title
			}
			fmt.Printf("Discovered feed: %s\n", rawURL)
		}

		if canonical.Canonicalize(rawURL) == "" {
			return fmt.Errorf("not a usable feed URL: %q", args[0])
		}

		sub := registry.NewSubscription(rawURL, title)
		if !prefStore.AddSubscription(sub) {
			return fmt.Errorf("already subscribed: %s", sub.Key)
		}

		fmt.Printf("Added subscription: %s\n", sub.Key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringP("title", "t", "", "display title (defaults to URL)")
	addCmd.Flags().BoolP("discover", "d", false, "treat the URL as a site and autodiscover its feed")
}
