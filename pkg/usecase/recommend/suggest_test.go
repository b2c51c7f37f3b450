package recommend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestSuggest(t *testing.T) {
	var config *genai.GenerateContentConfig
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			config = c
			gt.S(t, promptText(contents)).Contains("Based on these movies: Inception (2010)")
			return textResponse(candidateJSON("Exciting 9", "Inception", "Exciting 2", "Unknown Film", "Exciting 5", "Exciting 7")), nil
		},
	}
	catalog := &mockCatalog{searchFunc: scenarioSearch}

	r, err := recommend.New(gemini, catalog, fixedSession()...)
	gt.NoError(t, err)

	resp, err := r.Suggest(context.Background(), []*model.HistoryItem{inception}, 3)
	gt.NoError(t, err)

	gt.Equal(t, gemini.calls.Load(), int64(1))
	gt.Equal(t, *config.Temperature, float32(0.7))
	gt.Equal(t, config.MaxOutputTokens, int32(1500))
	gt.Nil(t, config.TopP)

	// generated order is kept, history and unresolved titles are dropped
	gt.Equal(t, movieIDs(resp.Movies), []int64{1009, 1002, 1005})
	gt.Equal(t, resp.Stats.ParsedCandidates, 6)
	gt.Equal(t, resp.Stats.Unresolved, 1)
	gt.Equal(t, resp.SessionID, "1741944413000-42")
	gt.Equal(t, resp.Mood, model.Mood(""))
}

func TestSuggestDefaultCount(t *testing.T) {
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gt.S(t, promptText(contents)).Contains("Recommend 20 NEW movies")
			return textResponse(candidateJSON(excitingTitles(1, 25)...)), nil
		},
	}
	r, err := recommend.New(gemini, &mockCatalog{searchFunc: scenarioSearch}, fixedSession()...)
	gt.NoError(t, err)

	resp, err := r.Suggest(context.Background(), []*model.HistoryItem{inception}, 0)
	gt.NoError(t, err)
	gt.A(t, resp.Movies).Length(20)
	assertValidResult(t, resp.Movies, inception)
}

func TestSuggestGenerationFailure(t *testing.T) {
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("model overloaded")
		},
	}
	catalog := &mockCatalog{searchFunc: scenarioSearch}
	r, err := recommend.New(gemini, catalog, fixedSession()...)
	gt.NoError(t, err)

	resp, err := r.Suggest(context.Background(), []*model.HistoryItem{inception}, 10)
	gt.NoError(t, err)
	gt.A(t, resp.Movies).Length(0)
	gt.Equal(t, resp.Stats.VariantsFailed, 1)
	gt.A(t, catalog.searchQueries()).Length(0)
}

func TestSuggestInvalidInput(t *testing.T) {
	r, err := recommend.New(&mockGemini{}, &mockCatalog{})
	gt.NoError(t, err)
	ctx := context.Background()

	_, err = r.Suggest(ctx, nil, 10)
	gt.True(t, errors.Is(err, recommend.ErrEmptyHistory))

	_, err = r.Suggest(ctx, []*model.HistoryItem{{ID: 1}}, 10)
	gt.True(t, errors.Is(err, recommend.ErrEmptyHistory))

	_, err = r.Suggest(ctx, []*model.HistoryItem{inception}, -5)
	gt.True(t, errors.Is(err, recommend.ErrInvalidTargetCount))
}
