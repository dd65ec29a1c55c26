package services

import (
	"testing"

	"mercari-ingest/models"
	"mercari-ingest/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger("error") }

func TestCleanerDropsEmptyID(t *testing.T) {
	c := NewCleaner(newTestLogger())
	results := []models.SearchResult{
		{ID: "", Title: "No ID"},
		{ID: "  ", Title: "Blank ID"},
		{ID: "m1", Title: "Has ID"},
	}

	cleaned := c.Clean(results)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 result after dropping empty ids, got %d", len(cleaned))
	}
}

func TestCleanerDeduplicatesID(t *testing.T) {
	c := NewCleaner(newTestLogger())
	results := []models.SearchResult{
		{ID: "m1", Title: "A"},
		{ID: " m1", Title: "B"},
		{ID: "m2", Title: "C"},
	}

	cleaned := c.Clean(results)
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 results after deduplication, got %d", len(cleaned))
	}
	if cleaned[0].Title != "A" {
		t.Errorf("first occurrence should win, got %q", cleaned[0].Title)
	}
}

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Nintendo   Switch\n OLED ", "Nintendo Switch OLED"},
		{"", ""},
		{"\t", ""},
		{"Like New", "Like New"},
	}

	for _, tt := range tests {
		if got := normaliseText(tt.in); got != tt.want {
			t.Errorf("normaliseText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
