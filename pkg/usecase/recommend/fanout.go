package recommend

import (
	"context"
	"strings"

	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

var (
	ErrEmptyGeneration = goerr.New("generative service returned no text")
)

// Outcome is the result of one concurrent branch. Exactly one of Value or
// Err is meaningful.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// OK reports whether the branch succeeded
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// generate issues every prompt concurrently and waits for all of them. A
// failed call is recorded in its outcome and never cancels its siblings.
func (r *Recommender) generate(ctx context.Context, prompts []Prompt, session *Session) []Outcome[string] {
	logger := logging.From(ctx)
	outcomes := make([]Outcome[string], len(prompts))

	var eg errgroup.Group
	eg.SetLimit(r.cfg.Concurrency)
	for i, p := range prompts {
		eg.Go(func() error {
			// Vary the sampling seed per variant within the session
			text, err := r.complete(ctx, p.Text, r.cfg.Generation, session.Seed+int64(i))
			outcomes[i] = Outcome[string]{Index: i, Value: text, Err: err}
			if err != nil {
				logger.Warn("suggestion call failed",
					"variant", p.Variant,
					"index", i,
					"error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes
}

// complete sends one prompt and returns the concatenated response text
func (r *Recommender) complete(ctx context.Context, prompt string, params GenerationParams, seed int64) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", goerr.Wrap(err, "outbound slot wait aborted")
	}
	defer r.sem.Release(1)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := r.gemini.GenerateContent(ctx, contents, params.contentConfig(seed))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate suggestions")
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(ErrEmptyGeneration, "empty suggestion response")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
