package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/cinemood/pkg/repository"
	"github.com/m-mizutani/gt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileListHistoryJSON(t *testing.T) {
	path := writeFile(t, "watchlist.json", `[
		{"id": 27205, "title": "Inception", "release_date": "2010-07-15", "original_language": "en", "genre_ids": [28, 878]},
		{"id": 496243, "title": "Parasite", "year": 2019, "original_language": "ko"}
	]`)

	history, err := repository.NewFile(path).ListHistory(context.Background(), "")
	gt.NoError(t, err)
	gt.A(t, history).Length(2)

	gt.Equal(t, history[0].ID, int64(27205))
	gt.Equal(t, history[0].ReleaseYear, 2010)
	gt.A(t, history[0].Genres).Length(2)
	gt.Equal(t, history[0].Order, 0)

	gt.Equal(t, history[1].ReleaseYear, 2019)
	gt.Equal(t, history[1].Order, 1)
}

func TestFileListHistoryYAML(t *testing.T) {
	path := writeFile(t, "watchlist.yaml", `
- id: 27205
  title: Inception
  release_date: "2010-07-15"
  original_language: en
  genre_ids: [28, 878]
`)

	history, err := repository.NewFile(path).ListHistory(context.Background(), "")
	gt.NoError(t, err)
	gt.A(t, history).Length(1)
	gt.Equal(t, history[0].Title, "Inception")
	gt.Equal(t, history[0].Language, "en")
}

func TestFileListHistoryErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := repository.NewFile(filepath.Join(t.TempDir(), "none.json")).ListHistory(context.Background(), "")
		gt.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeFile(t, "broken.json", `{"not": "an array"`)
		_, err := repository.NewFile(path).ListHistory(context.Background(), "")
		gt.Error(t, err)
	})
}
