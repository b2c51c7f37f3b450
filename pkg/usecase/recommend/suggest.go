package recommend

import (
	"context"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Suggest asks for count movies similar to the whole history in a single
// generative call. Results keep the order of the generated list and are not
// backfilled. A failed call yields an empty response.
func (r *Recommender) Suggest(ctx context.Context, history []*model.HistoryItem, count int) (*Response, error) {
	titled := 0
	for _, h := range history {
		if h != nil && h.Title != "" {
			titled++
		}
	}
	if titled == 0 {
		return nil, goerr.Wrap(ErrEmptyHistory, "suggestions need at least one history item")
	}

	count, err := r.targetCount(count, r.cfg.SuggestCount)
	if err != nil {
		return nil, err
	}

	ctx, p := r.newPipeline(ctx, history)
	logger := logging.From(ctx)

	prompt, err := buildSuggestPrompt(history, count)
	if err != nil {
		return nil, err
	}

	logger.Info("generating watchlist suggestions", "history", titled, "count", count)

	var cands []*model.Candidate
	text, err := r.complete(ctx, prompt, r.cfg.SuggestGeneration, p.session.Seed)
	if err != nil {
		logger.Warn("suggestion call failed", "error", err)
		p.stats.VariantsFailed++
	} else {
		p.stats.VariantsSucceeded++
		cands = ParseCandidates(text)
		p.stats.ParsedCandidates = len(cands)
	}

	unique := DedupCandidates(cands)
	p.stats.UniqueCandidates = len(unique)
	if len(unique) > r.cfg.MaxCandidates {
		unique = unique[:r.cfg.MaxCandidates]
	}

	movies := r.resolveAll(ctx, p, unique)
	if len(movies) > count {
		movies = movies[:count]
	}

	resp := &Response{
		ID:        model.NewRecommendationID(),
		SessionID: p.session.ID,
		CreatedAt: p.session.Timestamp,
		Movies:    movies,
		Stats:     *p.stats,
		Partial:   ctx.Err() != nil,
	}

	logger.Info("suggestions ready", "count", len(resp.Movies), "stats", resp.Stats)
	return resp, nil
}
