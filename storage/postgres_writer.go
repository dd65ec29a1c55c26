package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"mercari-ingest/models"
)

const listingsTable = "listings"

var listingColumns = []string{
	"platform", "platform_id", "title", "description", "price", "images",
	"condition", "seller_name", "seller_rating", "seller_total_sales",
	"seller_joined_date", "category", "brand", "shipping_cost",
	"shipping_method", "url",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresWriter persists canonical listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

var _ ListingWriter = (*PostgresWriter)(nil)

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                 SERIAL PRIMARY KEY,
			platform           VARCHAR(50)   NOT NULL,
			platform_id        TEXT,
			title              TEXT          NOT NULL DEFAULT '',
			description        TEXT          NOT NULL DEFAULT '',
			price              NUMERIC(12,2) NOT NULL DEFAULT 0,
			images             TEXT[]        NOT NULL DEFAULT '{}',
			condition          VARCHAR(20)   NOT NULL,
			seller_name        TEXT          NOT NULL DEFAULT 'Unknown',
			seller_rating      NUMERIC(4,2),
			seller_total_sales INTEGER       NOT NULL DEFAULT 0,
			seller_joined_date TEXT,
			category           TEXT          NOT NULL DEFAULT 'Unknown',
			brand              TEXT,
			shipping_cost      NUMERIC(10,2) NOT NULL DEFAULT 0,
			shipping_method    TEXT          NOT NULL DEFAULT 'Unknown',
			url                TEXT,
			created_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (platform, platform_id)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price     ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_condition ON listings(condition);
		CREATE INDEX IF NOT EXISTS idx_listings_brand     ON listings(brand);
	`)
	return err
}

// Write batch-upserts listings keyed on (platform, platform_id).
func (pw *PostgresWriter) Write(listings []models.CanonicalListing) error {
	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args, err := buildUpsert(listings[i:end])
		if err != nil {
			return fmt.Errorf("postgres: build upsert: %w", err)
		}
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch: %w", err)
		}
	}
	return nil
}

func buildUpsert(batch []models.CanonicalListing) (string, []interface{}, error) {
	insert := psql.Insert(listingsTable).Columns(listingColumns...)
	for _, l := range batch {
		insert = insert.Values(
			l.Platform, l.PlatformID, l.Title, l.Description, l.Price,
			pq.StringArray(l.Images), l.Condition.String(),
			l.SellerInfo.Name, l.SellerInfo.Rating, l.SellerInfo.TotalSales,
			l.SellerInfo.JoinedDate, l.Category, l.Brand, l.ShippingCost,
			l.ShippingMethod, l.URL,
		)
	}
	return insert.Suffix(`ON CONFLICT (platform, platform_id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		images = EXCLUDED.images,
		condition = EXCLUDED.condition,
		seller_name = EXCLUDED.seller_name,
		seller_rating = EXCLUDED.seller_rating,
		seller_total_sales = EXCLUDED.seller_total_sales,
		seller_joined_date = EXCLUDED.seller_joined_date,
		category = EXCLUDED.category,
		brand = EXCLUDED.brand,
		shipping_cost = EXCLUDED.shipping_cost,
		shipping_method = EXCLUDED.shipping_method,
		url = EXCLUDED.url,
		updated_at = NOW()`).ToSql()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings, used by the insight service.
func (pw *PostgresWriter) FetchAll() ([]models.CanonicalListing, error) {
	query, args, err := psql.Select(listingColumns...).From(listingsTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build select: %w", err)
	}

	rows, err := pw.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []models.CanonicalListing
	for rows.Next() {
		var (
			l         models.CanonicalListing
			images    pq.StringArray
			condition string
		)
		if err := rows.Scan(
			&l.Platform, &l.PlatformID, &l.Title, &l.Description, &l.Price,
			&images, &condition, &l.SellerInfo.Name, &l.SellerInfo.Rating,
			&l.SellerInfo.TotalSales, &l.SellerInfo.JoinedDate, &l.Category,
			&l.Brand, &l.ShippingCost, &l.ShippingMethod, &l.URL,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.Images = []string(images)
		if l.Images == nil {
			l.Images = []string{}
		}
		if l.Condition, err = models.ParseCondition(condition); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
