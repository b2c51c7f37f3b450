package recommend

import (
	"context"

	"github.com/m-mizutani/cinemood/pkg/adapter"
	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoMatch = goerr.New("no catalog match")
)

// resolveCandidate maps a candidate to its top ranked catalog record. The
// title and year query is tried first, then the title alone. A failed primary
// search counts as no match and the fallback still runs.
func (r *Recommender) resolveCandidate(ctx context.Context, cand *model.Candidate) (*model.Movie, error) {
	logger := logging.From(ctx)

	if cand.Year > 0 {
		movie, err := r.searchTop(ctx, adapter.SearchQuery{Query: cand.Title, Year: cand.Year})
		if err != nil {
			logger.Debug("primary search failed, retrying without year",
				"title", cand.Title,
				"year", cand.Year,
				"error", err)
		}
		if movie != nil {
			return movie, nil
		}
	}

	movie, err := r.searchTop(ctx, adapter.SearchQuery{Query: cand.Title})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve candidate",
			goerr.V("title", cand.Title),
			goerr.V("year", cand.Year))
	}
	if movie == nil {
		return nil, goerr.Wrap(ErrNoMatch, "candidate not found in catalog",
			goerr.V("title", cand.Title),
			goerr.V("year", cand.Year))
	}
	return movie, nil
}

// searchTop returns the first search result, or nil when there is none
func (r *Recommender) searchTop(ctx context.Context, query adapter.SearchQuery) (*model.Movie, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, goerr.Wrap(err, "outbound slot wait aborted")
	}
	defer r.sem.Release(1)

	movies, err := r.catalog.SearchMovies(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, m := range movies {
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// resolve runs resolveCandidate for every candidate, bounded by Concurrency.
// Outcomes keep candidate order.
func (r *Recommender) resolve(ctx context.Context, cands []*model.Candidate) []Outcome[*model.Movie] {
	logger := logging.From(ctx)
	outcomes := make([]Outcome[*model.Movie], len(cands))

	var eg errgroup.Group
	eg.SetLimit(r.cfg.Concurrency)
	for i, c := range cands {
		eg.Go(func() error {
			movie, err := r.resolveCandidate(ctx, c)
			outcomes[i] = Outcome[*model.Movie]{Index: i, Value: movie, Err: err}
			if err != nil {
				logger.Debug("candidate unresolved", "title", c.Title, "year", c.Year, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes
}

// resolvedMovies collects successful outcomes in order
func resolvedMovies(outcomes []Outcome[*model.Movie]) []*model.Movie {
	movies := make([]*model.Movie, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() && o.Value != nil {
			movies = append(movies, o.Value)
		}
	}
	return movies
}

// ResolveCandidateForTest is a test helper that exposes resolveCandidate
func (r *Recommender) ResolveCandidateForTest(ctx context.Context, cand *model.Candidate) (*model.Movie, error) {
	return r.resolveCandidate(ctx, cand)
}
