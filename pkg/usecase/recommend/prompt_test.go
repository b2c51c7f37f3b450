package recommend_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/gt"
)

func TestBuildPrompts(t *testing.T) {
	history := []*model.HistoryItem{
		{ID: 27205, Title: "Inception", ReleaseYear: 2010, Language: "en", Genres: []int64{28, 878}},
	}
	profile := recommend.AnalyzeProfile(history, "en")
	session := recommend.NewSessionForTest(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), 42)

	prompts, err := recommend.BuildPrompts(profile, model.MoodExciting, session, 8)
	gt.NoError(t, err)
	gt.A(t, prompts).Length(5)

	framings := []string{
		"WATCHLIST ANALYSIS:",
		"USER PREFERENCES:",
		"PERSONALIZED REQUEST:",
		"DISCOVERY MODE:",
		"TAILORED SUGGESTIONS:",
	}

	seen := map[string]struct{}{}
	for i, p := range prompts {
		gt.Equal(t, p.Variant, recommend.Variants[i])
		gt.True(t, strings.HasPrefix(p.Text, framings[i]))
		gt.S(t, p.Text).Contains("Inception (2010, EN)")
		gt.S(t, p.Text).Contains(model.MoodExciting.Gloss())
		gt.S(t, p.Text).Contains("Return ONLY a JSON array")
		gt.S(t, p.Text).Contains(`{"title": "Movie Name", "year": 2023}`)
		gt.S(t, p.Text).Contains("Recommend 8 NEW movies")
		gt.S(t, p.Text).Contains("Session ID: 1741944413000-42")
		gt.S(t, p.Text).Contains("14/03/2025, 09:26:53")
		gt.S(t, p.Text).NotContains("<no value>")

		seen[p.Text] = struct{}{}
	}
	gt.Equal(t, len(seen), 5)

	// seed based framings quote the raw seed
	gt.S(t, prompts[2].Text).Contains("SEED: 42")
	gt.S(t, prompts[3].Text).Contains("RANDOM: 42")
}

func TestBuildPromptsEmptyHistory(t *testing.T) {
	profile := recommend.AnalyzeProfile(nil, "en")
	session := recommend.NewSessionForTest(time.Now(), 1)

	prompts, err := recommend.BuildPrompts(profile, model.MoodRelaxed, session, 8)
	gt.NoError(t, err)
	for _, p := range prompts {
		gt.S(t, p.Text).Contains("New user with no watch history")
	}
}

func TestBuildPromptsInvalidMood(t *testing.T) {
	profile := recommend.AnalyzeProfile(nil, "en")
	session := recommend.NewSessionForTest(time.Now(), 1)

	_, err := recommend.BuildPrompts(profile, model.Mood("angry"), session, 8)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidMood))
}

func TestBuildSuggestPrompt(t *testing.T) {
	history := []*model.HistoryItem{
		{ID: 1, Title: "Inception", ReleaseYear: 2010},
		{ID: 2, Title: "Arrival"},
		nil,
		{ID: 3, Title: ""},
	}

	prompt, err := recommend.BuildSuggestPromptForTest(history, 20)
	gt.NoError(t, err)
	gt.S(t, prompt).Contains("Based on these movies: Inception (2010), Arrival.")
	gt.S(t, prompt).Contains("Recommend 20 NEW movies")
	gt.S(t, prompt).Contains("Return ONLY the JSON array")
}
