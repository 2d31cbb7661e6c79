package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vrpweave/vrpweave/pkg/cmdlib"
)

var commandsCmd = &cobra.Command{
	Use:   "commands [topic]",
	Short: "Show the VRP command reference",
	Long: `Commands prints annotated VRP CLI fragments for template authors.

Without a topic it lists the available topics; with one it prints that
topic's fragments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Println("Available topics:")
			for _, topic := range cmdlib.Topics() {
				fmt.Printf("  %s\n", topic)
			}
			fmt.Println("\nUse 'vrpweave commands <topic>' for the fragments.")
			return nil
		}

		frags, err := cmdlib.Fragments(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Command", "Purpose"})
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, f := range frags {
			table.Append([]string{f.Command, f.Purpose})
		}
		table.Render()
		return nil
	},
}
