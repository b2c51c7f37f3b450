package recommend

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/*.md
var promptFS embed.FS

var promptTmpl = template.Must(template.ParseFS(promptFS, "prompt/*.md"))

// Variant is a prompt framing. Each variant words the same request
// differently to spread the generated suggestions.
type Variant string

const (
	VariantWatchlistAnalysis   Variant = "watchlist_analysis"
	VariantUserPreferences     Variant = "user_preferences"
	VariantPersonalizedRequest Variant = "personalized_request"
	VariantDiscoveryMode       Variant = "discovery_mode"
	VariantTailoredSuggestions Variant = "tailored_suggestions"
)

// Variants lists the framings in the order they are issued
var Variants = []Variant{
	VariantWatchlistAnalysis,
	VariantUserPreferences,
	VariantPersonalizedRequest,
	VariantDiscoveryMode,
	VariantTailoredSuggestions,
}

// Prompt is one rendered request to the generative service
type Prompt struct {
	Variant Variant
	Text    string
}

type promptData struct {
	Summary   string
	Mood      model.Mood
	Gloss     string
	Time      string
	SessionID string
	Seed      int64
	Count     int
}

// BuildPrompts renders one prompt per variant. Every prompt carries the
// profile summary, the mood gloss, the session id and timestamp.
func BuildPrompts(profile *TasteProfile, mood model.Mood, session *Session, count int) ([]Prompt, error) {
	if err := mood.Validate(); err != nil {
		return nil, err
	}

	data := promptData{
		Summary:   profile.Summary,
		Mood:      mood,
		Gloss:     mood.Gloss(),
		Time:      session.timeLabel(),
		SessionID: session.ID,
		Seed:      session.Seed,
		Count:     count,
	}

	prompts := make([]Prompt, 0, len(Variants))
	for _, v := range Variants {
		text, err := render(string(v)+".md", data)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build prompt", goerr.V("variant", v))
		}
		prompts = append(prompts, Prompt{Variant: v, Text: text})
	}
	return prompts, nil
}

// buildSuggestPrompt renders the single watchlist based request
func buildSuggestPrompt(history []*model.HistoryItem, count int) (string, error) {
	titles := make([]string, 0, len(history))
	for _, h := range history {
		if h == nil || strings.TrimSpace(h.Title) == "" {
			continue
		}
		titles = append(titles, h.Label())
	}

	return render("suggest.md", map[string]any{
		"Titles": strings.Join(titles, ", "),
		"Count":  count,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute prompt template", goerr.V("template", name))
	}
	return buf.String(), nil
}

// BuildSuggestPromptForTest is a test helper that exposes buildSuggestPrompt
func BuildSuggestPromptForTest(history []*model.HistoryItem, count int) (string, error) {
	return buildSuggestPrompt(history, count)
}
