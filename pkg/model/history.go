package model

import (
	"fmt"
	"strings"
)

// HistoryItem is one entry of a user's watchlist as supplied by the history
// store. Items are read-only for the recommendation pipeline.
type HistoryItem struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	ReleaseYear int     `json:"release_year,omitempty" yaml:"release_year,omitempty"`
	Language    string  `json:"original_language,omitempty" yaml:"original_language,omitempty"`
	Genres      []int64 `json:"genre_ids,omitempty" yaml:"genre_ids,omitempty"`

	// Order is the insertion index in the watchlist. Larger is more recent.
	Order int `json:"order" yaml:"order"`
}

// Label renders the item as "Title (Year)" for prompts.
func (h *HistoryItem) Label() string {
	if h.ReleaseYear > 0 {
		return fmt.Sprintf("%s (%d)", h.Title, h.ReleaseYear)
	}
	return h.Title
}

// YearFromDate extracts the year from a "YYYY-MM-DD" release date. It returns
// 0 when the date is empty or malformed.
func YearFromDate(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}
