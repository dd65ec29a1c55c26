package mercari

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mercari-ingest/models"
	"mercari-ingest/utils"
)

const (
	// DefaultSearchURL is the public search endpoint.
	DefaultSearchURL = "https://api.mercari.com/v2/search"
	itemBaseURL      = "https://mercari.com/item/"
	resultLimit      = 100
	statusOnSale     = "on_sale"
	statusSold       = "sold"
)

// conditionCodes maps user-facing condition filters to the search API's codes.
var conditionCodes = map[string]string{
	"new":      "1",
	"like_new": "2",
	"good":     "3",
	"fair":     "4",
}

// Client queries the Mercari search API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *utils.Logger
}

// NewClient creates a search client. An empty apiKey sends unauthenticated
// requests; a zero timeout means no timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *utils.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type searchResponse struct {
	Items []models.RawListing `json:"items"`
}

// Search runs q against the search endpoint and returns the projected items.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) ([]models.SearchResult, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("mercari: parse search url: %w", err)
	}
	endpoint.RawQuery = BuildParams(q).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("mercari: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mercari: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercari: search returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("mercari: decode search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, project(item))
	}

	c.logger.Info("[mercari] Search returned %d results", len(results))
	return results, nil
}

// BuildParams encodes a query as search API parameters.
func BuildParams(q models.SearchQuery) url.Values {
	params := url.Values{}
	params.Set("keyword", q.Keyword)
	params.Set("limit", strconv.Itoa(resultLimit))

	if q.Category != "" {
		params.Set("category_id", q.Category)
	}
	if q.Condition != "" {
		params.Set("condition", ConditionCode(q.Condition))
	}
	if q.MinPrice != nil {
		params.Set("price_min", formatPrice(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		params.Set("price_max", formatPrice(*q.MaxPrice))
	}
	if !q.IncludeSold {
		params.Set("status", statusOnSale)
	}
	return params
}

// ConditionCode maps a condition filter to its API code. Unknown values are
// passed through unchanged.
func ConditionCode(condition string) string {
	if code, ok := conditionCodes[strings.ToLower(condition)]; ok {
		return code
	}
	return condition
}

// ItemURL returns the public page of the item with the given id.
func ItemURL(id string) string {
	return itemBaseURL + id
}

func project(item models.RawListing) models.SearchResult {
	id := item.StringOr("id", "")
	price, _, err := item.Float("price")
	if err != nil {
		price = 0
	}
	return models.SearchResult{
		ID:        id,
		Title:     item.StringOr("name", ""),
		Price:     price,
		Condition: item.StringOr("condition_description", ""),
		URL:       ItemURL(id),
		IsSold:    item.StringOr("status", "") == statusSold,
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
