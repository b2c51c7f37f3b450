package recommend

import (
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Config holds the fixed parameters of the pipeline. It is set when the
// Recommender is built and is not tunable per call.
type Config struct {
	// TargetCount is the result size used when the caller passes zero
	TargetCount int
	// MaxTargetCount bounds caller supplied result sizes
	MaxTargetCount int
	// SuggestCount is the default size of watchlist based suggestions
	SuggestCount int

	// CandidatesPerCall is the number of titles requested from each prompt variant
	CandidatesPerCall int
	// MaxCandidates caps the number of unique candidates sent to the catalog
	MaxCandidates int

	// BackfillPages is the number of discovery pages derived from the session
	BackfillPages int
	// PageSpan is the number of distinct discovery pages to rotate through
	PageSpan int
	// MinVoteCount filters discovery results
	MinVoteCount int
	// MinReleaseDate filters discovery results, formatted as YYYY-MM-DD
	MinReleaseDate string
	// DefaultLanguage is assumed for users without history and is not sent
	// as a discovery filter
	DefaultLanguage string

	// Concurrency bounds in-flight calls within one stage
	Concurrency int
	// MaxOutbound bounds in-flight upstream calls across all invocations
	MaxOutbound int

	Generation GenerationParams
	// SuggestGeneration is used by the single watchlist based request
	SuggestGeneration GenerationParams
}

// GenerationParams favor diversity over likelihood
type GenerationParams struct {
	Temperature      float32
	TopP             float32
	MaxOutputTokens  int32
	FrequencyPenalty float32
	PresencePenalty  float32
}

// DefaultConfig returns the configuration used by the CLI
func DefaultConfig() Config {
	return Config{
		TargetCount:       30,
		MaxTargetCount:    100,
		SuggestCount:      20,
		CandidatesPerCall: 8,
		MaxCandidates:     40,
		BackfillPages:     5,
		PageSpan:          5,
		MinVoteCount:      100,
		MinReleaseDate:    "2015-01-01",
		DefaultLanguage:   "en",
		Concurrency:       8,
		MaxOutbound:       16,
		Generation: GenerationParams{
			Temperature:      0.9,
			TopP:             0.9,
			MaxOutputTokens:  800,
			FrequencyPenalty: 0.3,
			PresencePenalty:  0.3,
		},
		SuggestGeneration: GenerationParams{
			Temperature:     0.7,
			MaxOutputTokens: 1500,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.TargetCount < 1 {
		return goerr.New("target count must be positive", goerr.V("target_count", c.TargetCount))
	}
	if c.MaxTargetCount < c.TargetCount {
		return goerr.New("max target count must not be less than target count",
			goerr.V("max_target_count", c.MaxTargetCount),
			goerr.V("target_count", c.TargetCount))
	}
	if c.SuggestCount < 1 || c.SuggestCount > c.MaxTargetCount {
		return goerr.New("suggest count out of range", goerr.V("suggest_count", c.SuggestCount))
	}
	if c.CandidatesPerCall < 1 {
		return goerr.New("candidates per call must be positive", goerr.V("candidates_per_call", c.CandidatesPerCall))
	}
	if c.MaxCandidates < 1 {
		return goerr.New("max candidates must be positive", goerr.V("max_candidates", c.MaxCandidates))
	}
	if c.BackfillPages < 1 || c.BackfillPages > maxBackfillPages {
		return goerr.New("backfill pages out of range",
			goerr.V("backfill_pages", c.BackfillPages),
			goerr.V("max", maxBackfillPages))
	}
	if c.PageSpan < 1 {
		return goerr.New("page span must be positive", goerr.V("page_span", c.PageSpan))
	}
	if c.MinVoteCount < 0 {
		return goerr.New("min vote count must be non-negative", goerr.V("min_vote_count", c.MinVoteCount))
	}
	if c.MinReleaseDate != "" {
		if _, err := time.Parse(time.DateOnly, c.MinReleaseDate); err != nil {
			return goerr.Wrap(err, "invalid min release date", goerr.V("min_release_date", c.MinReleaseDate))
		}
	}
	if c.DefaultLanguage == "" {
		return goerr.New("default language is required")
	}
	if c.Concurrency < 1 {
		return goerr.New("concurrency must be positive", goerr.V("concurrency", c.Concurrency))
	}
	if c.MaxOutbound < 1 {
		return goerr.New("max outbound must be positive", goerr.V("max_outbound", c.MaxOutbound))
	}
	if c.Generation.MaxOutputTokens < 1 || c.SuggestGeneration.MaxOutputTokens < 1 {
		return goerr.New("max output tokens must be positive",
			goerr.V("max_output_tokens", c.Generation.MaxOutputTokens),
			goerr.V("suggest_max_output_tokens", c.SuggestGeneration.MaxOutputTokens))
	}
	return nil
}

// requestSeed reduces a session seed into the non-negative int32 range
// accepted by the generative service
func requestSeed(seed int64) int32 {
	r := seed % math.MaxInt32
	if r < 0 {
		r += math.MaxInt32
	}
	return int32(r)
}

// contentConfig builds the request config. Zero valued sampling fields are
// left to the service default.
func (p GenerationParams) contentConfig(seed int64) *genai.GenerateContentConfig {
	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: p.MaxOutputTokens,
		Seed:            ptr(requestSeed(seed)),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}
	if p.Temperature > 0 {
		config.Temperature = ptr(p.Temperature)
	}
	if p.TopP > 0 {
		config.TopP = ptr(p.TopP)
	}
	if p.FrequencyPenalty != 0 {
		config.FrequencyPenalty = ptr(p.FrequencyPenalty)
	}
	if p.PresencePenalty != 0 {
		config.PresencePenalty = ptr(p.PresencePenalty)
	}
	return config
}

func ptr[T any](v T) *T {
	return &v
}
