package services

import (
	"context"

	"mercari-ingest/models"
	"mercari-ingest/utils"
)

// Searcher runs a marketplace search.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.SearchResult, error)
}

// DetailFetcher loads the item page of a listing.
type DetailFetcher interface {
	Fetch(ctx context.Context, pageURL string) (models.RawListing, error)
}

// Ingestor drives search → clean → enrich → normalize for one query.
type Ingestor struct {
	searcher   Searcher
	details    DetailFetcher
	cleaner    *Cleaner
	normalizer *Normalizer
	logger     *utils.Logger
}

// NewIngestor wires an Ingestor. details may be nil to skip enrichment.
func NewIngestor(searcher Searcher, details DetailFetcher, normalizer *Normalizer, logger *utils.Logger) *Ingestor {
	return &Ingestor{
		searcher:   searcher,
		details:    details,
		cleaner:    NewCleaner(logger),
		normalizer: normalizer,
		logger:     logger,
	}
}

// Collect runs the search and returns raw listings ready for normalization.
// A failed search is logged and yields no listings, so callers cannot tell
// "no results" apart from "search failed".
func (in *Ingestor) Collect(ctx context.Context, q models.SearchQuery) []models.RawListing {
	results, err := in.searcher.Search(ctx, q)
	if err != nil {
		in.logger.Error("[ingest] Mercari search error: %v", err)
		return []models.RawListing{}
	}

	results = in.cleaner.Clean(results)
	raws := make([]models.RawListing, 0, len(results))
	for _, r := range results {
		raw := r.ToRaw()
		if in.details != nil && r.URL != "" {
			in.enrich(ctx, raw, r.URL)
		}
		raws = append(raws, raw)
	}
	return raws
}

// Run collects listings for q and normalizes them. Listings whose price or
// shipping cost cannot be read are logged and dropped.
func (in *Ingestor) Run(ctx context.Context, q models.SearchQuery) []models.CanonicalListing {
	raws := in.Collect(ctx, q)

	out := make([]models.CanonicalListing, 0, len(raws))
	for _, raw := range raws {
		listing, err := in.normalizer.NormalizeListing(raw)
		if err != nil {
			in.logger.Error("[ingest] Dropping listing %s: %v", raw.StringOr("id", "?"), err)
			continue
		}
		out = append(out, listing)
	}

	in.logger.Info("[ingest] Normalized %d of %d listings", len(out), len(raws))
	return out
}

// enrich fills keys missing from raw with the fields found on the item page.
// Values already present from the search result are kept.
func (in *Ingestor) enrich(ctx context.Context, raw models.RawListing, pageURL string) {
	detail, err := in.details.Fetch(ctx, pageURL)
	if err != nil {
		in.logger.Warn("[ingest] Detail page failed for %s: %v", pageURL, err)
		return
	}
	for k, v := range detail {
		if _, ok := raw.Value(k); !ok {
			raw[k] = v
		}
	}
	in.logger.Debug("[ingest] Enriched: %s", raw.StringOr("title", pageURL))
}
