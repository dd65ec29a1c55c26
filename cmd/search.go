package cmd

import (
	"github.com/spf13/cobra"

	"mercari-ingest/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search Mercari and print the projected results as JSON",
	Example: `  mercari-ingest search "nintendo switch"
  mercari-ingest search "nintendo switch" --condition like_new --min-price 100 --max-price 300`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addSearchFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	results, err := a.searchClient().Search(cmd.Context(), searchQuery(cmd, args[0]))
	if err != nil {
		a.logger.Error("[search] Mercari search error: %v", err)
		results = []models.SearchResult{}
	}
	return writeJSON(cmd.OutOrStdout(), results)
}
