package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// File reads a watchlist exported as a JSON or YAML array. The same list is
// returned for every user ID.
type File struct {
	path string
}

// fileItem accepts both the TMDB movie layout (release_date) and a plain year
type fileItem struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	ReleaseDate string  `json:"release_date" yaml:"release_date"`
	Year        int     `json:"year" yaml:"year"`
	Language    string  `json:"original_language" yaml:"original_language"`
	Genres      []int64 `json:"genre_ids" yaml:"genre_ids"`
}

// NewFile creates a file backed history reader
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) ListHistory(ctx context.Context, userID string) ([]*model.HistoryItem, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history file", goerr.V("path", f.path))
	}

	var entries []fileItem
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &entries)
	default:
		err = json.Unmarshal(raw, &entries)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse history file", goerr.V("path", f.path))
	}

	items := make([]*model.HistoryItem, 0, len(entries))
	for i, e := range entries {
		year := e.Year
		if year == 0 {
			year = model.YearFromDate(e.ReleaseDate)
		}
		items = append(items, &model.HistoryItem{
			ID:          e.ID,
			Title:       e.Title,
			ReleaseYear: year,
			Language:    e.Language,
			Genres:      e.Genres,
			Order:       i,
		})
	}

	return items, nil
}
