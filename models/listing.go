package models

// Platform identifies the marketplace every CanonicalListing originates from.
const Platform = "Mercari"

// SellerInfo is the seller metadata projected out of a raw listing.
type SellerInfo struct {
	Name       string   `json:"name"`
	Rating     *float64 `json:"rating"`
	TotalSales int      `json:"total_sales"`
	JoinedDate *string  `json:"joined_date"`
}

// CanonicalListing is the normalized, platform-agnostic listing record.
// Every field is always serialized so consumers see a fixed set of keys.
type CanonicalListing struct {
	Platform       string            `json:"platform"`
	PlatformID     *string           `json:"platform_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	Images         []string          `json:"images"`
	Condition      StandardCondition `json:"condition"`
	SellerInfo     SellerInfo        `json:"seller_info"`
	Category       string            `json:"category"`
	Brand          *string           `json:"brand"`
	ShippingCost   float64           `json:"shipping_cost"`
	ShippingMethod string            `json:"shipping_method"`
	URL            *string           `json:"url"`
}

// SearchResult is the projection of one item returned by the search endpoint.
type SearchResult struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Condition string  `json:"condition"`
	URL       string  `json:"url"`
	IsSold    bool    `json:"is_sold"`
}

// ToRaw converts a search result into the raw listing shape the normalizer
// consumes. Empty fields are left out so the normalizer defaults apply.
func (r SearchResult) ToRaw() RawListing {
	raw := RawListing{"price": r.Price}
	if r.ID != "" {
		raw["id"] = r.ID
	}
	if r.Title != "" {
		raw["title"] = r.Title
	}
	if r.Condition != "" {
		raw["condition"] = r.Condition
	}
	if r.URL != "" {
		raw["listing_url"] = r.URL
	}
	return raw
}

// SellerSummary is a seller entry in the insight report.
type SellerSummary struct {
	Name       string
	Rating     float64
	TotalSales int
}

// InsightReport holds the computed analytics over normalized listings.
type InsightReport struct {
	TotalListings       int
	AveragePrice        float64
	MinPrice            float64
	MaxPrice            float64
	MostExpensive       *CanonicalListing
	ListingsByCondition map[StandardCondition]int
	ListingsByBrand     map[string]int
	Unbranded           int
	TopSellers          []SellerSummary
}

// SearchQuery describes a filtered marketplace search.
type SearchQuery struct {
	Keyword     string
	Category    string
	Condition   string
	MinPrice    *float64
	MaxPrice    *float64
	IncludeSold bool
}
