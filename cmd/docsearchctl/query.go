package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Find the stored documents closest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", models.DefaultTopK, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	results, err := searchService.Search(cmd.Context(), strings.Join(args, " "), queryTopK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"documents": results})
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "[%d] %s (distance %.4f)\n", i+1, r.ID, r.Score)
		fmt.Fprintf(out, "    %s\n", snippet(r.Content, 120))
	}
	return nil
}

// snippet flattens whitespace and truncates to max runes.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
