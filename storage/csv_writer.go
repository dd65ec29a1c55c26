package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"mercari-ingest/models"
)

var csvHeader = []string{
	"platform", "platform_id", "title", "description", "price", "images",
	"condition", "seller_name", "seller_rating", "seller_total_sales",
	"seller_joined_date", "category", "brand", "shipping_cost",
	"shipping_method", "url",
}

// CSVWriter writes canonical listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var _ ListingWriter = (*CSVWriter)(nil)

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing. Image URLs are joined with "|";
// absent optional values are written as empty cells.
func (c *CSVWriter) Write(listings []models.CanonicalListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		row := []string{
			l.Platform,
			deref(l.PlatformID),
			l.Title,
			l.Description,
			formatFloat(l.Price),
			strings.Join(l.Images, "|"),
			l.Condition.String(),
			l.SellerInfo.Name,
			formatOptionalFloat(l.SellerInfo.Rating),
			strconv.Itoa(l.SellerInfo.TotalSales),
			deref(l.SellerInfo.JoinedDate),
			l.Category,
			deref(l.Brand),
			formatFloat(l.ShippingCost),
			l.ShippingMethod,
			deref(l.URL),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
