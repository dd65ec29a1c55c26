package mercari

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"mercari-ingest/models"
	"mercari-ingest/utils"
)

var (
	// amountRegexp captures the first numeric amount in a price-like string.
	amountRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// countRegexp captures an integer count such as "1,204 sales".
	countRegexp = regexp.MustCompile(`\d[\d,]*`)
)

// Item page selectors. Mercari tags the detail panel with data-testid
// attributes; JSON-LD covers the product fields when present.
const (
	selName           = `[data-testid="ItemName"]`
	selDescription    = `[data-testid="ItemDetailsDescription"]`
	selPrice          = `[data-testid="ItemPrice"]`
	selImages         = `[data-testid="ItemImage"] img, [data-testid="ItemThumbnail"] img`
	selCondition      = `[data-testid="ItemDetailsCondition"]`
	selBrand          = `[data-testid="ItemDetailsBrand"]`
	selCategory       = `[data-testid="ItemDetailsCategory"] a`
	selSellerName     = `[data-testid="ItemDetailsSellerName"]`
	selSellerRating   = `[data-testid="ItemDetailsSellerRating"]`
	selSellerSales    = `[data-testid="ItemDetailsSellerSales"]`
	selSellerJoined   = `[data-testid="ItemDetailsSellerJoined"]`
	selShippingFee    = `[data-testid="ItemDetailsShippingFee"]`
	selShippingMethod = `[data-testid="ItemDetailsShippingMethod"]`
	selJSONLD         = `script[type="application/ld+json"]`
)

// DetailFetcher renders item pages in a headless browser and parses them
// into raw listings.
type DetailFetcher struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	timeout    time.Duration
	logger     *utils.Logger
}

// NewDetailFetcher starts a headless browser shared by every Fetch. chromeBin
// may be empty to let the binary be discovered. Call Close when done.
func NewDetailFetcher(chromeBin string, timeout time.Duration, logger *utils.Logger) (*DetailFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[mercari] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	// Running the empty task list launches the browser; tabs opened from
	// browserCtx afterwards attach to it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("mercari: start browser: %w", err)
	}

	return &DetailFetcher{
		browserCtx: browserCtx,
		cancel:     cancel,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Fetch renders pageURL and extracts the listing fields found on it.
func (f *DetailFetcher) Fetch(ctx context.Context, pageURL string) (models.RawListing, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if f.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, f.timeout)
		defer cancelTimeout()
	}

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("mercari: render %s: %w", pageURL, err)
	}

	raw, err := ParseItemPage(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("mercari: parse %s: %w", pageURL, err)
	}
	raw["listing_url"] = pageURL

	f.logger.Debug("[mercari] Detail page %s yielded %d fields", pageURL, len(raw))
	return raw, nil
}

// Close shuts the browser down.
func (f *DetailFetcher) Close() {
	f.cancel()
}

// ParseItemPage extracts raw listing fields from an item page. Only fields
// found on the page are set.
func ParseItemPage(r io.Reader) (models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	raw := models.RawListing{}
	parseJSONLD(doc, raw)

	setText(raw, "title", doc.Find(selName))
	setText(raw, "description", doc.Find(selDescription))
	setText(raw, "condition", doc.Find(selCondition))
	setText(raw, "brand", doc.Find(selBrand))
	setText(raw, "seller_username", doc.Find(selSellerName))
	setText(raw, "seller_join_date", doc.Find(selSellerJoined))
	setText(raw, "shipping_method", doc.Find(selShippingMethod))

	if _, ok := raw["price"]; !ok {
		if amount, ok := parseAmount(text(doc.Find(selPrice))); ok {
			raw["price"] = amount
		}
	}

	if crumbs := doc.Find(selCategory); crumbs.Length() > 0 {
		raw["category"] = text(crumbs.Last())
	}

	if rating, ok := parseAmount(text(doc.Find(selSellerRating))); ok {
		raw["seller_rating"] = rating
	}
	if m := countRegexp.FindString(text(doc.Find(selSellerSales))); m != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil {
			raw["seller_total_sales"] = n
		}
	}

	fee := text(doc.Find(selShippingFee))
	if strings.EqualFold(fee, "free") || strings.Contains(strings.ToLower(fee), "free shipping") {
		raw["shipping_cost"] = 0.0
	} else if amount, ok := parseAmount(fee); ok {
		raw["shipping_cost"] = amount
	}

	if _, ok := raw["image_urls"]; !ok {
		var images []any
		doc.Find(selImages).Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("src"); ok && src != "" {
				images = append(images, src)
			}
		})
		if len(images) > 0 {
			raw["image_urls"] = images
		}
	}

	return raw, nil
}

// productLD is the subset of a schema.org Product we read.
type productLD struct {
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       json.RawMessage `json:"image"`
	Brand       struct {
		Name string `json:"name"`
	} `json:"brand"`
	Offers struct {
		Price json.Number `json:"price"`
	} `json:"offers"`
}

func parseJSONLD(doc *goquery.Document, raw models.RawListing) {
	doc.Find(selJSONLD).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var p productLD
		if err := json.Unmarshal([]byte(s.Text()), &p); err != nil || p.Type != "Product" {
			return true
		}
		if p.Name != "" {
			raw["title"] = p.Name
		}
		if p.Description != "" {
			raw["description"] = p.Description
		}
		if p.Brand.Name != "" {
			raw["brand"] = p.Brand.Name
		}
		if p.Offers.Price != "" {
			if f, err := p.Offers.Price.Float64(); err == nil {
				raw["price"] = f
			}
		}
		if images := decodeImages(p.Image); len(images) > 0 {
			raw["image_urls"] = images
		}
		return false
	})
}

// decodeImages accepts either a single URL or a list of URLs.
func decodeImages(msg json.RawMessage) []any {
	if len(msg) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(msg, &one); err == nil && one != "" {
		return []any{one}
	}
	var many []string
	if err := json.Unmarshal(msg, &many); err != nil {
		return nil
	}
	out := make([]any, 0, len(many))
	for _, u := range many {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// setText stores the trimmed text of sel under key unless key is already set
// or the text is empty.
func setText(raw models.RawListing, key string, sel *goquery.Selection) {
	if _, ok := raw[key]; ok {
		return
	}
	if t := text(sel); t != "" {
		raw[key] = t
	}
}

func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.First().Text()), " ")
}

func parseAmount(s string) (float64, bool) {
	m := amountRegexp.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
