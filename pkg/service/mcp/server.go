package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/repository"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "cinemood"
	serverVersion = "0.1.0"
)

// Recommender is the pipeline surface exposed as tools
type Recommender interface {
	Recommend(ctx context.Context, input recommend.Input) (*recommend.Response, error)
	Suggest(ctx context.Context, history []*model.HistoryItem, count int) (*recommend.Response, error)
}

// Server exposes recommendations to MCP clients
type Server struct {
	rec     Recommender
	history repository.HistoryReader
	timeout time.Duration
	server  *mcp.Server
}

type Option func(*Server)

// WithHistoryReader enables the user_id parameter
func WithHistoryReader(reader repository.HistoryReader) Option {
	return func(s *Server) {
		s.history = reader
	}
}

// WithTimeout bounds each recommend_movies call
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates an MCP server with the recommend_movies, suggest_movies
// and list_moods tools
func NewServer(rec Recommender, opts ...Option) *Server {
	s := &Server{rec: rec}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recommend_movies",
		Description: "Recommend movies for a mood, personalized by the user's watchlist. Watched movies are never recommended.",
		InputSchema: recommendSchema(),
	}, s.recommendMovies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_movies",
		Description: "Suggest recent movies similar to the whole watchlist",
		InputSchema: suggestSchema(),
	}, s.suggestMovies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_moods",
		Description: "List the moods accepted by recommend_movies",
	}, s.listMoods)

	return s
}

// Run serves over stdin and stdout until ctx is canceled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server stopped")
	}
	return nil
}

// Handler returns a streamable HTTP handler serving the same tools
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

type historyParam struct {
	ID       int64   `json:"id,omitempty"`
	Title    string  `json:"title"`
	Year     int     `json:"year,omitempty"`
	Language string  `json:"original_language,omitempty"`
	Genres   []int64 `json:"genre_ids,omitempty"`
}

type recommendParams struct {
	Mood    string         `json:"mood"`
	Count   int            `json:"count,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	History []historyParam `json:"history,omitempty"`
}

type suggestParams struct {
	Count   int            `json:"count,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	History []historyParam `json:"history,omitempty"`
}

type listMoodsParams struct{}

func (s *Server) recommendMovies(ctx context.Context, req *mcp.CallToolRequest, params *recommendParams) (*mcp.CallToolResult, any, error) {
	history, err := s.loadHistory(ctx, params.UserID, params.History)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.rec.Recommend(ctx, recommend.Input{
		History:     history,
		Mood:        model.Mood(strings.ToLower(strings.TrimSpace(params.Mood))),
		TargetCount: params.Count,
		Timeout:     s.timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	return textResult(resp)
}

func (s *Server) suggestMovies(ctx context.Context, req *mcp.CallToolRequest, params *suggestParams) (*mcp.CallToolResult, any, error) {
	history, err := s.loadHistory(ctx, params.UserID, params.History)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.rec.Suggest(ctx, history, params.Count)
	if err != nil {
		return nil, nil, err
	}

	return textResult(resp)
}

func (s *Server) listMoods(ctx context.Context, req *mcp.CallToolRequest, params *listMoodsParams) (*mcp.CallToolResult, any, error) {
	var b strings.Builder
	for _, info := range model.Moods() {
		fmt.Fprintf(&b, "%s: %s - %s\n", info.Mood, info.Label, info.Description)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: b.String()},
		},
	}, nil, nil
}

// loadHistory prefers the history store when a user id is given
func (s *Server) loadHistory(ctx context.Context, userID string, inline []historyParam) ([]*model.HistoryItem, error) {
	if userID != "" {
		if s.history == nil {
			return nil, goerr.New("user_id is not supported without a history store")
		}
		items, err := s.history.ListHistory(ctx, userID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load history", goerr.V("user_id", userID))
		}
		logging.From(ctx).Debug("history loaded", "user_id", userID, "items", len(items))
		return items, nil
	}

	items := make([]*model.HistoryItem, 0, len(inline))
	for i, h := range inline {
		items = append(items, &model.HistoryItem{
			ID:          h.ID,
			Title:       h.Title,
			ReleaseYear: h.Year,
			Language:    h.Language,
			Genres:      h.Genres,
			Order:       i,
		})
	}
	return items, nil
}

type movieResult struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Year     int     `json:"year,omitempty"`
	Rating   float64 `json:"rating"`
	Language string  `json:"original_language,omitempty"`
	Overview string  `json:"overview,omitempty"`
}

type recommendResult struct {
	SessionID string        `json:"session_id"`
	Partial   bool          `json:"partial,omitempty"`
	Movies    []movieResult `json:"movies"`
	Message   string        `json:"message,omitempty"`
}

func textResult(resp *recommend.Response) (*mcp.CallToolResult, any, error) {
	result := recommendResult{
		SessionID: resp.SessionID,
		Partial:   resp.Partial,
		Movies:    make([]movieResult, 0, len(resp.Movies)),
	}
	for _, m := range resp.Movies {
		result.Movies = append(result.Movies, movieResult{
			ID:       m.ID,
			Title:    m.Title,
			Year:     m.Year(),
			Rating:   m.Rating,
			Language: m.Language,
			Overview: m.Overview,
		})
	}
	if len(result.Movies) == 0 {
		result.Message = "no recommendations available"
	}

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to marshal recommendations")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil, nil
}
