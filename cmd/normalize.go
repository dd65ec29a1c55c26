package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercari-ingest/models"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalize a JSON array of raw listings (file or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	raws, err := decodeRawListings(in)
	if err != nil {
		return err
	}

	listings, err := a.normalizer.NormalizeAll(raws)
	if err != nil {
		return err
	}
	a.logger.Info("[normalize] Normalized %d listings", len(listings))
	return writeJSON(cmd.OutOrStdout(), listings)
}

func decodeRawListings(r io.Reader) ([]models.RawListing, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raws []models.RawListing
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode raw listings: %w", err)
	}
	return raws, nil
}
