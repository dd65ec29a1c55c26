package cmd

import (
	"github.com/spf13/cobra"

	"mercari-ingest/scraper/mercari"
	"mercari-ingest/services"
	"mercari-ingest/storage"
)

var flagNoDB bool

var runCmd = &cobra.Command{
	Use:   "run <keyword>",
	Short: "Search, normalize, store and report on Mercari listings",
	Long: `Run executes the full ingest: search → clean → (optional) detail-page
enrichment → normalize → CSV + PostgreSQL → insight report.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSearchFlags(runCmd)
	runCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "Skip PostgreSQL storage")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	logger := a.logger
	cfg := a.cfg

	logger.Info("=== Mercari ingest starting ===")
	logger.Info("Config — search: %s | timeout: %s | enrich: %t", cfg.SearchURL, cfg.SearchTimeout, cfg.EnrichDetails)

	var details services.DetailFetcher
	if cfg.EnrichDetails {
		fetcher, err := mercari.NewDetailFetcher(cfg.ChromeBin, cfg.DetailTimeout, logger)
		if err != nil {
			logger.Error("Detail enrichment disabled: %v", err)
		} else {
			defer fetcher.Close()
			details = fetcher
		}
	}

	ingestor := services.NewIngestor(a.searchClient(), details, a.normalizer, logger)
	listings := ingestor.Run(cmd.Context(), searchQuery(cmd, args[0]))
	if len(listings) == 0 {
		logger.Warn("No listings to store.")
		return nil
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(listings); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Listings saved to %s", cfg.CSVOutputPath)
	}

	reportOn := listings
	if !flagNoDB {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.Write(listings); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Listings stored in PostgreSQL (table: listings)")
			}
			if stored, err := pgWriter.FetchAll(); err != nil {
				logger.Error("Failed to fetch listings from DB for insights: %v", err)
			} else {
				reportOn = stored
			}
		}
	}

	insights := services.NewInsightService(logger)
	insights.Print(cmd.OutOrStdout(), insights.Generate(reportOn))
	return nil
}
