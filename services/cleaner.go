package services

import (
	"strings"
	"unicode"

	"mercari-ingest/models"
	"mercari-ingest/utils"
)

// Cleaner tidies search results before normalization.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean drops results without an id, removes duplicate ids (first one wins)
// and collapses whitespace in text fields.
func (c *Cleaner) Clean(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]struct{})
	out := make([]models.SearchResult, 0, len(results))

	for _, r := range results {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			c.logger.Warn("[cleaner] Dropping result with empty id: %s", r.Title)
			continue
		}

		if _, dup := seen[id]; dup {
			c.logger.Debug("[cleaner] Duplicate id skipped: %s", id)
			continue
		}
		seen[id] = struct{}{}

		r.ID = id
		r.Title = normaliseText(r.Title)
		r.Condition = normaliseText(r.Condition)
		out = append(out, r)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d results (dropped %d)",
		len(results), len(out), len(results)-len(out))
	return out
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
