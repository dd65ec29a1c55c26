package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"mercari-ingest/config"
	"mercari-ingest/models"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(config.DefaultVocabulary())
}

func sampleRawListing() models.RawListing {
	return models.RawListing{
		"id":                 "mercari_123456",
		"title":              "Nike Air Max Running Shoes - Like New",
		"description":        "Gently used Nike Air Max in excellent condition",
		"price":              79.99,
		"image_urls":         []any{"https://example.com/shoe1.jpg", "https://example.com/shoe2.jpg"},
		"condition":          "Like New",
		"seller_username":    "shoe_seller",
		"seller_rating":      4.9,
		"seller_total_sales": 500,
		"seller_join_date":   "2022-06-01",
		"category":           "Shoes",
		"shipping_cost":      5.99,
		"shipping_method":    "USPS Priority",
		"listing_url":        "https://mercari.com/listing/123456",
	}
}

func TestNormalizeCondition(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		text string
		want models.StandardCondition
	}{
		{"Brand New", models.ConditionNew},
		{"New with tags", models.ConditionNew},
		{"Like New", models.ConditionLikeNew},
		{"LIKE NEW - barely worn, new laces", models.ConditionLikeNew},
		{"new, basically like new", models.ConditionLikeNew},
		{"Very Good Condition", models.ConditionVeryGood},
		{"Good", models.ConditionGood},
		{"Acceptable", models.ConditionAcceptable},
		{"Poor, Has Flaws", models.ConditionPoor},
		{"has flaws on the sole", models.ConditionPoor},
		{"", models.ConditionGood},
		{"Unknown", models.ConditionGood},
		{"Renewed by seller", models.ConditionGood},
		{"newer model, acceptable wear", models.ConditionAcceptable},
		{"ünew", models.ConditionGood},
		{"新品new", models.ConditionGood},
		{"new新品", models.ConditionGood},
		{"新品 new", models.ConditionNew},
		{"状態: like new!", models.ConditionLikeNew},
	}

	for _, tt := range tests {
		if got := n.NormalizeCondition(tt.text); got != tt.want {
			t.Errorf("NormalizeCondition(%q) = %s; want %s", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeConditionCustomVocabulary(t *testing.T) {
	vocab, err := config.ParseVocabulary([]byte(`
conditions:
  - condition: POOR
    phrases: ["for parts"]
default_condition: ACCEPTABLE
`))
	if err != nil {
		t.Fatal(err)
	}
	n := NewNormalizer(vocab)

	if got := n.NormalizeCondition("Sold For Parts only"); got != models.ConditionPoor {
		t.Errorf("got %s, want POOR", got)
	}
	if got := n.NormalizeCondition("Brand New"); got != models.ConditionAcceptable {
		t.Errorf("unmatched text: got %s, want vocabulary default ACCEPTABLE", got)
	}
}

func TestExtractSellerInfo(t *testing.T) {
	info := ExtractSellerInfo(models.RawListing{
		"seller_username":    "test_seller",
		"seller_rating":      4.8,
		"seller_total_sales": 250,
		"seller_join_date":   "2023-01-15",
	})

	if info.Name != "test_seller" {
		t.Errorf("Name: got %q", info.Name)
	}
	if info.Rating == nil || *info.Rating != 4.8 {
		t.Errorf("Rating: got %v, want 4.8", info.Rating)
	}
	if info.TotalSales != 250 {
		t.Errorf("TotalSales: got %d, want 250", info.TotalSales)
	}
	if info.JoinedDate == nil || *info.JoinedDate != "2023-01-15" {
		t.Errorf("JoinedDate: got %v", info.JoinedDate)
	}
}

func TestExtractSellerInfoDefaults(t *testing.T) {
	got := ExtractSellerInfo(models.RawListing{})
	want := models.SellerInfo{Name: "Unknown"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestExtractSellerInfoWrongTypesDegrade(t *testing.T) {
	info := ExtractSellerInfo(models.RawListing{
		"seller_rating":      "great",
		"seller_total_sales": []any{1},
		"seller_join_date":   20230115,
	})

	if info.Rating != nil {
		t.Errorf("Rating: got %v, want nil", *info.Rating)
	}
	if info.TotalSales != 0 {
		t.Errorf("TotalSales: got %d, want 0", info.TotalSales)
	}
	if info.JoinedDate != nil {
		t.Errorf("JoinedDate: got %q, want nil", *info.JoinedDate)
	}
}

func TestExtractSellerInfoNonFiniteDegrades(t *testing.T) {
	info := ExtractSellerInfo(models.RawListing{
		"seller_rating":      "NaN",
		"seller_total_sales": "Inf",
	})

	if info.Rating != nil {
		t.Errorf("Rating: got %v, want nil", *info.Rating)
	}
	if info.TotalSales != 0 {
		t.Errorf("TotalSales: got %d, want 0", info.TotalSales)
	}
}

func TestNormalizeListingComplete(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.NormalizeListing(sampleRawListing())
	if err != nil {
		t.Fatalf("NormalizeListing: %v", err)
	}

	if got.Platform != "Mercari" {
		t.Errorf("Platform: got %q", got.Platform)
	}
	if got.PlatformID == nil || *got.PlatformID != "mercari_123456" {
		t.Errorf("PlatformID: got %v", got.PlatformID)
	}
	if got.Price != 79.99 {
		t.Errorf("Price: got %v, want 79.99", got.Price)
	}
	if got.Condition != models.ConditionLikeNew {
		t.Errorf("Condition: got %s, want LIKE_NEW", got.Condition)
	}
	if got.Brand == nil || *got.Brand != "Nike" {
		t.Errorf("Brand: got %v, want Nike", got.Brand)
	}
	if len(got.Images) != 2 || got.Images[0] != "https://example.com/shoe1.jpg" {
		t.Errorf("Images: got %v", got.Images)
	}
	if got.ShippingCost != 5.99 || got.ShippingMethod != "USPS Priority" {
		t.Errorf("shipping: got %v / %q", got.ShippingCost, got.ShippingMethod)
	}
	if got.SellerInfo.Name != "shoe_seller" || got.SellerInfo.TotalSales != 500 {
		t.Errorf("SellerInfo: got %+v", got.SellerInfo)
	}
	if got.URL == nil || *got.URL != "https://mercari.com/listing/123456" {
		t.Errorf("URL: got %v", got.URL)
	}
}

func TestNormalizeListingDefaults(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.NormalizeListing(models.RawListing{})
	if err != nil {
		t.Fatalf("NormalizeListing: %v", err)
	}

	want := models.CanonicalListing{
		Platform:       "Mercari",
		Images:         []string{},
		Condition:      models.ConditionGood,
		SellerInfo:     models.SellerInfo{Name: "Unknown"},
		Category:       "Unknown",
		ShippingMethod: "Unknown",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestNormalizeListingOutputKeys(t *testing.T) {
	n := newTestNormalizer()
	wantKeys := []string{
		"platform", "platform_id", "title", "description", "price",
		"images", "condition", "seller_info", "category", "brand",
		"shipping_cost", "shipping_method", "url",
	}

	for _, raw := range []models.RawListing{{}, sampleRawListing(), {"title": "Sony headphones"}} {
		listing, err := n.NormalizeListing(raw)
		if err != nil {
			t.Fatalf("NormalizeListing: %v", err)
		}
		b, err := json.Marshal(listing)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(fields) != len(wantKeys) {
			t.Errorf("got %d keys, want %d: %s", len(fields), len(wantKeys), b)
		}
		for _, k := range wantKeys {
			if _, ok := fields[k]; !ok {
				t.Errorf("missing key %q in %s", k, b)
			}
		}
	}
}

func TestNormalizeListingEmptyImagesSerializeAsArray(t *testing.T) {
	listing, err := newTestNormalizer().NormalizeListing(models.RawListing{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(listing)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}
	if string(fields["images"]) != "[]" {
		t.Errorf("images: got %s, want []", fields["images"])
	}
	if string(fields["condition"]) != `"GOOD"` {
		t.Errorf("condition: got %s, want \"GOOD\"", fields["condition"])
	}
}

func TestNormalizeListingIdempotent(t *testing.T) {
	n := newTestNormalizer()
	raw := sampleRawListing()

	first, err := n.NormalizeListing(raw)
	if err != nil {
		t.Fatal(err)
	}
	second, err := n.NormalizeListing(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalizing twice differs:\n%+v\n%+v", first, second)
	}
}

func TestNormalizeListingNumericStrings(t *testing.T) {
	got, err := newTestNormalizer().NormalizeListing(models.RawListing{
		"price":         "25.50",
		"shipping_cost": 0,
		"id":            float64(42),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Price != 25.5 || got.ShippingCost != 0 {
		t.Errorf("got price %v shipping %v", got.Price, got.ShippingCost)
	}
	if got.PlatformID == nil || *got.PlatformID != "42" {
		t.Errorf("PlatformID: got %v, want 42", got.PlatformID)
	}
}

func TestNormalizeListingRejectsBadNumbers(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw   models.RawListing
		field string
	}{
		{models.RawListing{"price": "free"}, "price"},
		{models.RawListing{"price": 10, "shipping_cost": "ask seller"}, "shipping_cost"},
		{models.RawListing{"price": []any{1}}, "price"},
		{models.RawListing{"price": "NaN"}, "price"},
		{models.RawListing{"price": 10, "shipping_cost": "Inf"}, "shipping_cost"},
	}

	for _, tt := range tests {
		_, err := n.NormalizeListing(tt.raw)
		var cerr *CoercionError
		if !errors.As(err, &cerr) {
			t.Errorf("%v: expected *CoercionError, got %v", tt.raw, err)
			continue
		}
		if cerr.Field != tt.field {
			t.Errorf("%v: Field = %q; want %q", tt.raw, cerr.Field, tt.field)
		}
		if !errors.Is(err, models.ErrNotNumeric) {
			t.Errorf("%v: error should wrap ErrNotNumeric", tt.raw)
		}
	}
}

func TestNormalizeAllReportsIndex(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.NormalizeAll([]models.RawListing{sampleRawListing(), {}})
	if err != nil || len(out) != 2 {
		t.Fatalf("got %d listings, err %v", len(out), err)
	}

	_, err = n.NormalizeAll([]models.RawListing{{}, {"price": "n/a"}})
	var cerr *CoercionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CoercionError, got %v", err)
	}
	if got := err.Error(); !strings.HasPrefix(got, "listing 1:") {
		t.Errorf("error should name the failing index: %q", got)
	}
}
