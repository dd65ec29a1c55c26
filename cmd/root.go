// Package cmd implements the mercari-ingest CLI using Cobra.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercari-ingest/config"
	"mercari-ingest/models"
	"mercari-ingest/scraper/mercari"
	"mercari-ingest/services"
	"mercari-ingest/utils"
)

var rootCmd = &cobra.Command{
	Use:   "mercari-ingest",
	Short: "Search Mercari and normalize listings into a platform-agnostic schema",
	Long: `mercari-ingest queries the Mercari search API and converts the results
into canonical listing records (condition classification, brand inference,
seller metadata).

Usage:
  mercari-ingest search <keyword> [flags]
  mercari-ingest normalize [file]
  mercari-ingest run <keyword> [flags]`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Search filter flags shared by search and run.
var (
	flagCategory    string
	flagCondition   string
	flagMinPrice    float64
	flagMaxPrice    float64
	flagIncludeSold bool
)

func addSearchFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagCategory, "category", "", "Category id filter")
	c.Flags().StringVar(&flagCondition, "condition", "", "Condition filter (new, like_new, good, fair or a raw code)")
	c.Flags().Float64Var(&flagMinPrice, "min-price", 0, "Minimum price")
	c.Flags().Float64Var(&flagMaxPrice, "max-price", 0, "Maximum price")
	c.Flags().BoolVar(&flagIncludeSold, "include-sold", false, "Include sold items")
}

func searchQuery(c *cobra.Command, keyword string) models.SearchQuery {
	q := models.SearchQuery{
		Keyword:     keyword,
		Category:    flagCategory,
		Condition:   flagCondition,
		IncludeSold: flagIncludeSold,
	}
	if c.Flags().Changed("min-price") {
		v := flagMinPrice
		q.MinPrice = &v
	}
	if c.Flags().Changed("max-price") {
		v := flagMaxPrice
		q.MaxPrice = &v
	}
	return q
}

// app bundles what every command needs.
type app struct {
	cfg        *config.Config
	logger     *utils.Logger
	normalizer *services.Normalizer
}

func newApp() (*app, error) {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	vocab, err := config.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("[config] Vocabulary: %d brands, %d condition rules", len(vocab.Brands), len(vocab.Conditions))

	return &app{
		cfg:        cfg,
		logger:     logger,
		normalizer: services.NewNormalizer(vocab),
	}, nil
}

func (a *app) searchClient() *mercari.Client {
	return mercari.NewClient(a.cfg.SearchURL, a.cfg.APIKey, a.cfg.SearchTimeout, a.logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
