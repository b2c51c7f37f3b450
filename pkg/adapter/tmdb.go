package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// Catalog is the authoritative movie catalog. SearchMovies is the catalog
// search service and DiscoverMovies is the discovery service.
type Catalog interface {
	// SearchMovies returns ranked matches for a title. An empty result is not an error.
	SearchMovies(ctx context.Context, query SearchQuery) ([]*model.Movie, error)

	// DiscoverMovies returns one page of movies matching the filters
	DiscoverMovies(ctx context.Context, query DiscoverQuery) ([]*model.Movie, error)
}

// SearchQuery is a title search. Year is omitted from the request when zero.
type SearchQuery struct {
	Query string
	Year  int
}

// DiscoverQuery is a filtered, sorted page request
type DiscoverQuery struct {
	SortBy         string
	MinVoteCount   int
	MinReleaseDate string
	Page           int
	Language       string
	Genres         []int64
}

type TMDBClient struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

type TMDBOption func(*TMDBClient)

// WithTMDBBaseURL overrides the API endpoint
func WithTMDBBaseURL(baseURL string) TMDBOption {
	return func(c *TMDBClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTMDBAccessToken authenticates with a v4 read access token instead of an API key
func WithTMDBAccessToken(token string) TMDBOption {
	return func(c *TMDBClient) {
		c.accessToken = token
	}
}

func WithTMDBHTTPClient(client *http.Client) TMDBOption {
	return func(c *TMDBClient) {
		c.httpClient = client
	}
}

// WithTMDBRateLimit paces outbound requests to rps requests per second.
// Zero or negative disables pacing.
func WithTMDBRateLimit(rps float64) TMDBOption {
	return func(c *TMDBClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewTMDB creates a new TMDB catalog client
func NewTMDB(apiKey string, opts ...TMDBOption) *TMDBClient {
	c := &TMDBClient{
		baseURL: tmdbBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type tmdbPage struct {
	Page    int         `json:"page"`
	Results []tmdbMovie `json:"results"`
}

type tmdbMovie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int64 `json:"genre_ids"`
	Overview         string  `json:"overview"`
}

func (m *tmdbMovie) toModel() *model.Movie {
	return &model.Movie{
		ID:            m.ID,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		ReleaseDate:   m.ReleaseDate,
		Rating:        m.VoteAverage,
		VoteCount:     m.VoteCount,
		Popularity:    m.Popularity,
		PosterPath:    m.PosterPath,
		Language:      m.OriginalLanguage,
		GenreIDs:      m.GenreIDs,
		Overview:      m.Overview,
	}
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query SearchQuery) ([]*model.Movie, error) {
	if strings.TrimSpace(query.Query) == "" {
		return nil, goerr.New("search query is empty")
	}

	params := url.Values{}
	params.Set("query", query.Query)
	if query.Year > 0 {
		params.Set("year", strconv.Itoa(query.Year))
	}

	page, err := c.get(ctx, "/search/movie", params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search movies",
			goerr.V("query", query.Query),
			goerr.V("year", query.Year))
	}

	return page.movies(), nil
}

func (c *TMDBClient) DiscoverMovies(ctx context.Context, query DiscoverQuery) ([]*model.Movie, error) {
	params := url.Values{}
	if query.SortBy != "" {
		params.Set("sort_by", query.SortBy)
	}
	if query.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(query.MinVoteCount))
	}
	if query.MinReleaseDate != "" {
		params.Set("primary_release_date.gte", query.MinReleaseDate)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.Language != "" {
		params.Set("with_original_language", query.Language)
	}
	if len(query.Genres) > 0 {
		genres := make([]string, 0, len(query.Genres))
		for _, g := range query.Genres {
			genres = append(genres, strconv.FormatInt(g, 10))
		}
		params.Set("with_genres", strings.Join(genres, ","))
	}

	page, err := c.get(ctx, "/discover/movie", params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to discover movies", goerr.V("page", query.Page))
	}

	return page.movies(), nil
}

func (p *tmdbPage) movies() []*model.Movie {
	movies := make([]*model.Movie, 0, len(p.Results))
	for i := range p.Results {
		movies = append(movies, p.Results[i].toModel())
	}
	return movies
}

// get sends a GET request to the TMDB API and decodes one result page
func (c *TMDBClient) get(ctx context.Context, path string, params url.Values) (*tmdbPage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, goerr.Wrap(err, "rate limiter wait aborted")
		}
	}

	if c.accessToken == "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("path", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, goerr.New("TMDB API returned error",
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	var page tmdbPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
	}

	return &page, nil
}
