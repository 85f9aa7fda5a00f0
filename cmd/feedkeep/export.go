// ABOUTME: Export command for writing the subscription set as OPML
// ABOUTME: Writes to stdout by default or to a file with -o

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/opml"
)

// exportTitle is the head title written into exported documents.
const exportTitle = "feedkeep subscriptions"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export subscriptions as OPML",
	Long:  "Export the subscription set as an OPML document, to stdout or a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		set := prefStore.Subscriptions()

		if output == "" {
			return opml.ExportTo(os.Stdout, exportTitle, set)
		}

		if err := opml.Export(exportTitle, set).WriteFile(output); err != nil {
			return fmt.Errorf("failed to write OPML file: %w", err)
		}
		fmt.Printf("Exported %d subscription(s) to %s\n", set.Len(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
