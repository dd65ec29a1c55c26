package storage

import "mercari-ingest/models"

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Write(listings []models.CanonicalListing) error
	Close() error
}
