// ABOUTME: Import command merging an OPML file into the subscription set
// ABOUTME: Applies the merge as one mutation and reports the import summary

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/opml"
)

var importCmd = &cobra.Command{
	Use:   "import <file.opml>",
	Short: "Import subscriptions from an OPML file",
	Long: `Merge feeds from an OPML file into the subscription set.

Feeds already subscribed to are left untouched. A malformed document
changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open OPML file: %w", err)
		}
		defer file.Close()

		// Merge into a snapshot so a parse failure leaves the live set
		// untouched, then apply the result as a single mutation.
		merged := prefStore.Subscriptions()
		summary, err := opml.Import(file, merged)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		prefStore.ReplaceSet(merged)

		fmt.Printf("Import complete: %s\n", summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
