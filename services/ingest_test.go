package services

import (
	"context"
	"errors"
	"testing"

	"mercari-ingest/config"
	"mercari-ingest/models"
)

type fakeSearcher struct {
	results []models.SearchResult
	err     error
	got     models.SearchQuery
}

func (f *fakeSearcher) Search(_ context.Context, q models.SearchQuery) ([]models.SearchResult, error) {
	f.got = q
	return f.results, f.err
}

type fakeDetails struct {
	pages map[string]models.RawListing
	calls int
}

func (f *fakeDetails) Fetch(_ context.Context, pageURL string) (models.RawListing, error) {
	f.calls++
	page, ok := f.pages[pageURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return page, nil
}

func newTestIngestor(s Searcher, d DetailFetcher) *Ingestor {
	return NewIngestor(s, d, NewNormalizer(config.DefaultVocabulary()), newTestLogger())
}

func TestIngestorSearchFailureYieldsEmpty(t *testing.T) {
	in := newTestIngestor(&fakeSearcher{err: errors.New("connection refused")}, nil)

	got := in.Run(context.Background(), models.SearchQuery{Keyword: "switch"})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestIngestorRunNormalizes(t *testing.T) {
	s := &fakeSearcher{results: []models.SearchResult{
		{ID: "m1", Title: "Nintendo Switch - Like New", Price: 250, Condition: "Like New", URL: "https://mercari.com/item/m1"},
		{ID: "m1", Title: "duplicate", Price: 1},
		{ID: "m2", Title: "Sony Walkman", Price: 40, Condition: "Poor, has flaws", URL: "https://mercari.com/item/m2"},
	}}
	in := newTestIngestor(s, nil)

	q := models.SearchQuery{Keyword: "switch", Condition: "like_new"}
	got := in.Run(context.Background(), q)

	if s.got.Keyword != "switch" || s.got.Condition != "like_new" {
		t.Errorf("query not passed through: %+v", s.got)
	}
	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2", len(got))
	}
	if got[0].Condition != models.ConditionLikeNew || got[0].Price != 250 {
		t.Errorf("first listing: got %+v", got[0])
	}
	if got[1].Brand == nil || *got[1].Brand != "Sony" || got[1].Condition != models.ConditionPoor {
		t.Errorf("second listing: got %+v", got[1])
	}
	if got[1].URL == nil || *got[1].URL != "https://mercari.com/item/m2" {
		t.Errorf("second listing URL: got %v", got[1].URL)
	}
}

func TestIngestorEnrichKeepsSearchValues(t *testing.T) {
	s := &fakeSearcher{results: []models.SearchResult{
		{ID: "m1", Title: "Air Max", Price: 80, Condition: "Good", URL: "u1"},
		{ID: "m2", Title: "Mystery box", Price: 10, URL: "u2"},
	}}
	d := &fakeDetails{pages: map[string]models.RawListing{
		"u1": {
			"title":           "Detail title",
			"description":     "Nike Air Max 90",
			"price":           99.0,
			"category":        "Shoes",
			"seller_username": "shoe_seller",
			"shipping_cost":   5.0,
		},
	}}
	in := newTestIngestor(s, d)

	raws := in.Collect(context.Background(), models.SearchQuery{Keyword: "air max"})
	if d.calls != 2 {
		t.Errorf("detail fetches: got %d, want 2", d.calls)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d raws, want 2", len(raws))
	}

	first := raws[0]
	if first["title"] != "Air Max" || first["price"] != 80.0 {
		t.Errorf("search values should win: %v", first)
	}
	if first["category"] != "Shoes" || first["description"] != "Nike Air Max 90" {
		t.Errorf("missing fields should be filled: %v", first)
	}
	if _, ok := raws[1]["description"]; ok {
		t.Errorf("failed detail fetch should leave listing untouched: %v", raws[1])
	}

	listings := in.Run(context.Background(), models.SearchQuery{Keyword: "air max"})
	if listings[0].Brand == nil || *listings[0].Brand != "Nike" {
		t.Errorf("brand from enriched description: got %v", listings[0].Brand)
	}
	if listings[0].ShippingCost != 5 {
		t.Errorf("ShippingCost: got %v, want 5", listings[0].ShippingCost)
	}
}

func TestIngestorDropsUncoercibleListings(t *testing.T) {
	s := &fakeSearcher{results: []models.SearchResult{
		{ID: "m1", Title: "ok", Price: 10, URL: "u1"},
		{ID: "m2", Title: "bad shipping", Price: 10, URL: "u2"},
	}}
	d := &fakeDetails{pages: map[string]models.RawListing{
		"u2": {"shipping_cost": "ask"},
	}}

	got := newTestIngestor(s, d).Run(context.Background(), models.SearchQuery{Keyword: "x"})
	if len(got) != 1 || got[0].Title != "ok" {
		t.Errorf("got %+v, want only the valid listing", got)
	}
}
