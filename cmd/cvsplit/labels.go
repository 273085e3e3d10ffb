package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the heading table in matching order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := loadTable()
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), table.Entries())
		}
		for _, e := range table.Entries() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", e.Label, strings.Join(e.Variants, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
