package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/m-mizutani/cinemood/pkg/adapter"
	"github.com/m-mizutani/gt"
)

type recordedRequest struct {
	path   string
	query  url.Values
	header http.Header
}

func newTMDBServer(t *testing.T, status int, body any) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, recordedRequest{
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

var inceptionPage = map[string]any{
	"page": 1,
	"results": []map[string]any{
		{
			"id":                27205,
			"title":             "Inception",
			"original_title":    "Inception",
			"release_date":      "2010-07-15",
			"vote_average":      8.4,
			"vote_count":        36000,
			"popularity":        92.5,
			"poster_path":       "/poster.jpg",
			"original_language": "en",
			"genre_ids":         []int{28, 878, 12},
		},
	},
}

func TestTMDBSearchMovies(t *testing.T) {
	srv, requests := newTMDBServer(t, http.StatusOK, inceptionPage)
	client := adapter.NewTMDB("test-key", adapter.WithTMDBBaseURL(srv.URL))

	movies, err := client.SearchMovies(context.Background(), adapter.SearchQuery{Query: "Inception", Year: 2010})
	gt.NoError(t, err)
	gt.A(t, movies).Length(1)
	gt.Equal(t, movies[0].ID, int64(27205))
	gt.Equal(t, movies[0].Title, "Inception")
	gt.Equal(t, movies[0].Year(), 2010)
	gt.Equal(t, movies[0].Language, "en")
	gt.A(t, movies[0].GenreIDs).Length(3)

	gt.A(t, *requests).Length(1)
	req := (*requests)[0]
	gt.Equal(t, req.path, "/search/movie")
	gt.Equal(t, req.query.Get("query"), "Inception")
	gt.Equal(t, req.query.Get("year"), "2010")
	gt.Equal(t, req.query.Get("api_key"), "test-key")
}

func TestTMDBSearchWithoutYear(t *testing.T) {
	srv, requests := newTMDBServer(t, http.StatusOK, map[string]any{"page": 1, "results": []any{}})
	client := adapter.NewTMDB("test-key", adapter.WithTMDBBaseURL(srv.URL))

	movies, err := client.SearchMovies(context.Background(), adapter.SearchQuery{Query: "Unknown Film"})
	gt.NoError(t, err)
	gt.A(t, movies).Length(0)
	gt.False(t, (*requests)[0].query.Has("year"))
}

func TestTMDBSearchEmptyQuery(t *testing.T) {
	client := adapter.NewTMDB("test-key", adapter.WithTMDBBaseURL("http://127.0.0.1:0"))
	_, err := client.SearchMovies(context.Background(), adapter.SearchQuery{Query: "  "})
	gt.Error(t, err)
}

func TestTMDBDiscoverMovies(t *testing.T) {
	srv, requests := newTMDBServer(t, http.StatusOK, inceptionPage)
	client := adapter.NewTMDB("", adapter.WithTMDBBaseURL(srv.URL), adapter.WithTMDBAccessToken("token"))

	movies, err := client.DiscoverMovies(context.Background(), adapter.DiscoverQuery{
		SortBy:         "popularity.desc",
		MinVoteCount:   100,
		MinReleaseDate: "2015-01-01",
		Page:           3,
		Language:       "ko",
		Genres:         []int64{28, 878},
	})
	gt.NoError(t, err)
	gt.A(t, movies).Length(1)

	req := (*requests)[0]
	gt.Equal(t, req.path, "/discover/movie")
	gt.Equal(t, req.query.Get("sort_by"), "popularity.desc")
	gt.Equal(t, req.query.Get("vote_count.gte"), "100")
	gt.Equal(t, req.query.Get("primary_release_date.gte"), "2015-01-01")
	gt.Equal(t, req.query.Get("page"), "3")
	gt.Equal(t, req.query.Get("with_original_language"), "ko")
	gt.Equal(t, req.query.Get("with_genres"), "28,878")
	gt.False(t, req.query.Has("api_key"))
	gt.Equal(t, req.header.Get("Authorization"), "Bearer token")
}

func TestTMDBErrorStatus(t *testing.T) {
	srv, _ := newTMDBServer(t, http.StatusUnauthorized, map[string]any{"status_message": "Invalid API key"})
	client := adapter.NewTMDB("bad-key", adapter.WithTMDBBaseURL(srv.URL))

	_, err := client.SearchMovies(context.Background(), adapter.SearchQuery{Query: "Inception"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("failed to search movies")
}

func TestTMDBRateLimitCanceled(t *testing.T) {
	srv, _ := newTMDBServer(t, http.StatusOK, inceptionPage)
	client := adapter.NewTMDB("test-key",
		adapter.WithTMDBBaseURL(srv.URL),
		adapter.WithTMDBRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.DiscoverMovies(ctx, adapter.DiscoverQuery{Page: 1})
	gt.Error(t, err)
}

func TestTMDBLiveSearch(t *testing.T) {
	apiKey := os.Getenv("TEST_TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_TMDB_API_KEY is not set")
	}

	client := adapter.NewTMDB(apiKey)
	movies, err := client.SearchMovies(context.Background(), adapter.SearchQuery{Query: "Inception", Year: 2010})
	gt.NoError(t, err)
	gt.A(t, movies).Longer(0)
	gt.Equal(t, movies[0].ID, int64(27205))
}
