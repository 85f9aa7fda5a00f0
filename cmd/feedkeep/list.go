// ABOUTME: List command for viewing the subscription set
// ABOUTME: Marks the active feed and shows canonical keys with color formatting

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/feedkeep/internal/timeutil"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List subscriptions",
	Long:    "List all feed subscriptions with their canonical keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		set := prefStore.Subscriptions()
		if set.Len() == 0 {
			fmt.Println("No subscriptions. Add one with 'feedkeep add <url>'")
			return nil
		}

		active := prefStore.ActiveFeed()
		keyColor := color.New(color.FgCyan)
		activeMark := color.New(color.FgGreen, color.Bold)

		fmt.Printf("%d subscription(s):\n\n", set.Len())
		for _, sub := range set.All() {
			marker := " "
			if sub.Key == active {
				marker = activeMark.Sprint("*")
			}
			title := sub.Title
			if title == "" {
				title = sub.URL
			}
			age := ""
			if sub.AddedAt != nil {
				age = "  " + timeutil.FormatRelative(*sub.AddedAt)
			}
			fmt.Printf("%s %s%s\n", marker, title, age)
			fmt.Printf("  %s\n", keyColor.Sprint(sub.Key))
			if sub.URL != "" && sub.URL != sub.Key {
				fmt.Printf("  URL: %s\n", sub.URL)
			}
			fmt.Println()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
