package recommend

import (
	"context"

	"github.com/m-mizutani/cinemood/pkg/adapter"
	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	backfillSortBy    = "popularity.desc"
	maxBackfillGenres = 2
)

// discoverQuery derives the discovery filters from the profile. The page is
// set per request.
func (r *Recommender) discoverQuery(profile *TasteProfile) adapter.DiscoverQuery {
	query := adapter.DiscoverQuery{
		SortBy:         backfillSortBy,
		MinVoteCount:   r.cfg.MinVoteCount,
		MinReleaseDate: r.cfg.MinReleaseDate,
	}

	if len(profile.TopLanguages) > 0 && profile.TopLanguages[0] != r.cfg.DefaultLanguage {
		query.Language = profile.TopLanguages[0]
	}

	genres := profile.TopGenres
	if len(genres) > maxBackfillGenres {
		genres = genres[:maxBackfillGenres]
	}
	if len(genres) > 0 {
		query.Genres = append([]int64(nil), genres...)
	}

	return query
}

// backfill extends current toward target from discovery pages. It returns
// current unchanged when it already reaches target.
func (r *Recommender) backfill(ctx context.Context, p *pipeline, current []*model.Movie, target int) []*model.Movie {
	if len(current) >= target {
		return current
	}

	logger := logging.From(ctx)
	pages := p.session.BackfillPages(r.cfg.BackfillPages, r.cfg.PageSpan)
	base := r.discoverQuery(p.profile)

	logger.Debug("starting backfill",
		"current", len(current),
		"target", target,
		"pages", pages)

	outcomes := make([]Outcome[[]*model.Movie], len(pages))
	var eg errgroup.Group
	eg.SetLimit(r.cfg.Concurrency)
	for i, page := range pages {
		eg.Go(func() error {
			query := base
			query.Page = page
			movies, err := r.discover(ctx, query)
			outcomes[i] = Outcome[[]*model.Movie]{Index: i, Value: movies, Err: err}
			if err != nil {
				logger.Warn("discovery page failed", "page", page, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	exclude := make(idSet, len(p.history)+len(current))
	for id := range p.history {
		exclude.add(id)
	}
	for _, m := range current {
		exclude.add(m.ID)
	}

	result := append(make([]*model.Movie, 0, target), current...)
	for _, o := range outcomes {
		if !o.OK() {
			p.stats.BackfillPagesFailed++
			continue
		}
		for _, m := range o.Value {
			if m == nil || exclude.has(m.ID) {
				continue
			}
			exclude.add(m.ID)
			if !r.allow(p.ctx, m, p.stats) {
				continue
			}
			result = append(result, m)
			p.stats.Backfilled++
			if len(result) >= target {
				return result
			}
		}
	}

	return result
}

func (r *Recommender) discover(ctx context.Context, query adapter.DiscoverQuery) ([]*model.Movie, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, goerr.Wrap(err, "outbound slot wait aborted")
	}
	defer r.sem.Release(1)

	return r.catalog.DiscoverMovies(ctx, query)
}

// DiscoverQueryForTest is a test helper that exposes discoverQuery
func (r *Recommender) DiscoverQueryForTest(profile *TasteProfile) adapter.DiscoverQuery {
	return r.discoverQuery(profile)
}
