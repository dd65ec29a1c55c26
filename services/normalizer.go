package services

import (
	"fmt"

	"mercari-ingest/config"
	"mercari-ingest/models"
)

const (
	unknownValue = "Unknown"
	fieldPrice   = "price"
	fieldShip    = "shipping_cost"
)

// CoercionError reports a numeric field whose value could not be converted.
type CoercionError struct {
	Field string
	Value any
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("normalizer: field %q: %v", e.Field, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// Normalizer converts raw Mercari listings into canonical listings. It holds
// no mutable state and may be shared between goroutines.
type Normalizer struct {
	classifier *ConditionClassifier
	brands     *BrandResolver
}

// NewNormalizer creates a Normalizer from a brand and condition vocabulary.
func NewNormalizer(vocab *config.Vocabulary) *Normalizer {
	return &Normalizer{
		classifier: NewConditionClassifier(vocab),
		brands:     NewBrandResolver(vocab.Brands),
	}
}

// NormalizeCondition classifies a free-text condition description.
func (n *Normalizer) NormalizeCondition(text string) models.StandardCondition {
	return n.classifier.Classify(text)
}

// ResolveBrand applies the explicit field, title, description fallback chain.
func (n *Normalizer) ResolveBrand(raw models.RawListing) *string {
	return n.brands.Resolve(raw)
}

// NormalizeListing maps raw onto a CanonicalListing. Missing fields take
// their documented defaults; only a non-numeric price or shipping cost is an
// error, returned as a *CoercionError.
func (n *Normalizer) NormalizeListing(raw models.RawListing) (models.CanonicalListing, error) {
	price, err := coerceNumber(raw, fieldPrice)
	if err != nil {
		return models.CanonicalListing{}, err
	}
	shipping, err := coerceNumber(raw, fieldShip)
	if err != nil {
		return models.CanonicalListing{}, err
	}

	return models.CanonicalListing{
		Platform:       models.Platform,
		PlatformID:     optionalString(raw, "id"),
		Title:          raw.StringOr("title", ""),
		Description:    raw.StringOr("description", ""),
		Price:          price,
		Images:         raw.Strings("image_urls"),
		Condition:      n.classifier.Classify(raw.StringOr("condition", unknownValue)),
		SellerInfo:     ExtractSellerInfo(raw),
		Category:       raw.StringOr("category", unknownValue),
		Brand:          n.brands.Resolve(raw),
		ShippingCost:   shipping,
		ShippingMethod: raw.StringOr("shipping_method", unknownValue),
		URL:            optionalString(raw, "listing_url"),
	}, nil
}

// NormalizeAll normalizes every listing, stopping at the first failure.
func (n *Normalizer) NormalizeAll(raws []models.RawListing) ([]models.CanonicalListing, error) {
	out := make([]models.CanonicalListing, 0, len(raws))
	for i, raw := range raws {
		listing, err := n.NormalizeListing(raw)
		if err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
		out = append(out, listing)
	}
	return out, nil
}

// ExtractSellerInfo projects the seller_* fields of raw. Values of the wrong
// type degrade to the field's default.
func ExtractSellerInfo(raw models.RawListing) models.SellerInfo {
	info := models.SellerInfo{
		Name: raw.StringOr("seller_username", unknownValue),
	}

	if rating, ok, err := raw.Float("seller_rating"); ok && err == nil {
		info.Rating = &rating
	}
	if sales, ok, err := raw.Float("seller_total_sales"); ok && err == nil {
		info.TotalSales = int(sales)
	}
	if v, ok := raw.Value("seller_join_date"); ok {
		if joined, isString := v.(string); isString {
			info.JoinedDate = &joined
		}
	}

	return info
}

func coerceNumber(raw models.RawListing, field string) (float64, error) {
	f, _, err := raw.Float(field)
	if err != nil {
		v, _ := raw.Value(field)
		return 0, &CoercionError{Field: field, Value: v, Err: err}
	}
	return f, nil
}

func optionalString(raw models.RawListing, key string) *string {
	s, ok := raw.String(key)
	if !ok {
		return nil
	}
	return &s
}
