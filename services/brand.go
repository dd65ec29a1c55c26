package services

import (
	"strings"

	"mercari-ingest/models"
)

// BrandResolver infers a listing's brand: the explicit brand field wins, then
// the known-brand list is scanned against the title and then the description.
//
// The scan is a heuristic. It returns the first brand in list order that
// appears anywhere in the text, not the brand that appears earliest.
type BrandResolver struct {
	brands []string
	folded []string
}

// NewBrandResolver builds a resolver over brands, keeping their order.
func NewBrandResolver(brands []string) *BrandResolver {
	b := &BrandResolver{
		brands: append([]string(nil), brands...),
		folded: make([]string, len(brands)),
	}
	for i, name := range brands {
		b.folded[i] = fold(name)
	}
	return b
}

// Resolve returns the brand for raw, or nil when no source yields one.
func (b *BrandResolver) Resolve(raw models.RawListing) *string {
	if brand, ok := raw.String("brand"); ok && brand != "" {
		return &brand
	}
	if brand, ok := b.Find(raw.StringOr("title", "")); ok {
		return &brand
	}
	if brand, ok := b.Find(raw.StringOr("description", "")); ok {
		return &brand
	}
	return nil
}

// Find returns the first known brand contained in text, ignoring case.
func (b *BrandResolver) Find(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	folded := fold(text)
	for i, name := range b.folded {
		if strings.Contains(folded, name) {
			return b.brands[i], true
		}
	}
	return "", false
}
