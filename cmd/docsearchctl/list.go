package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	listing, err := listService.GetAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	out := cmd.OutOrStdout()
	for i, id := range listing.IDs {
		fmt.Fprintf(out, "%s\t%s\n", id, snippet(listing.Documents[i], 60))
	}
	fmt.Fprintf(out, "%d documents\n", len(listing.IDs))
	return nil
}
