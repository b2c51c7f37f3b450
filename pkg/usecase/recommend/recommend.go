package recommend

import (
	"context"
	"time"

	"github.com/m-mizutani/cinemood/pkg/adapter"
	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidTargetCount = goerr.New("invalid target count")
	ErrEmptyHistory       = goerr.New("history is empty")
)

// ItemFilter vetoes resolved movies before they are recommended
type ItemFilter interface {
	Allow(ctx context.Context, movie *model.Movie) (bool, error)
}

// Recommender runs the recommendation pipeline. It holds no per-request
// state and is safe for concurrent use.
type Recommender struct {
	gemini  adapter.Gemini
	catalog adapter.Catalog
	filter  ItemFilter
	cfg     Config

	// sem caps outbound calls across all concurrent invocations
	sem *semaphore.Weighted

	now  func() time.Time
	seed func() int64
}

type Option func(*Recommender)

// WithConfig replaces DefaultConfig
func WithConfig(cfg Config) Option {
	return func(r *Recommender) {
		r.cfg = cfg
	}
}

// WithFilter sets a filter applied to resolved and backfilled movies
func WithFilter(filter ItemFilter) Option {
	return func(r *Recommender) {
		r.filter = filter
	}
}

// WithClock sets the clock used for session timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Recommender) {
		r.now = now
	}
}

// WithSeedSource sets the source of session seeds
func WithSeedSource(seed func() int64) Option {
	return func(r *Recommender) {
		r.seed = seed
	}
}

// New creates a Recommender
func New(gemini adapter.Gemini, catalog adapter.Catalog, opts ...Option) (*Recommender, error) {
	if gemini == nil {
		return nil, goerr.New("generative client is required")
	}
	if catalog == nil {
		return nil, goerr.New("catalog client is required")
	}

	r := &Recommender{
		gemini:  gemini,
		catalog: catalog,
		cfg:     DefaultConfig(),
		now:     time.Now,
		seed:    defaultSeed,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid recommend config")
	}
	r.sem = semaphore.NewWeighted(int64(r.cfg.MaxOutbound))

	return r, nil
}

// Config returns the configuration in use
func (r *Recommender) Config() Config {
	return r.cfg
}

// Input is one recommendation request
type Input struct {
	History []*model.HistoryItem
	Mood    model.Mood

	// TargetCount is the maximum result size. Zero selects the configured default.
	TargetCount int

	// Timeout bounds the network stages. When it expires the movies gathered
	// so far are returned with Partial set. Zero means the ctx deadline only.
	Timeout time.Duration
}

// Stats counts what each stage produced
type Stats struct {
	VariantsSucceeded   int `json:"variants_succeeded"`
	VariantsFailed      int `json:"variants_failed"`
	ParsedCandidates    int `json:"parsed_candidates"`
	UniqueCandidates    int `json:"unique_candidates"`
	Resolved            int `json:"resolved"`
	Unresolved          int `json:"unresolved"`
	Backfilled          int `json:"backfilled"`
	BackfillPagesFailed int `json:"backfill_pages_failed"`
	PolicyRejected      int `json:"policy_rejected"`
}

// Response is the result of one invocation. An empty Movies slice means no
// recommendations were available and is not an error.
type Response struct {
	ID        model.RecommendationID `json:"id"`
	SessionID string                 `json:"session_id"`
	Mood      model.Mood             `json:"mood,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Movies    []*model.Movie         `json:"movies"`
	Stats     Stats                  `json:"stats"`
	Partial   bool                   `json:"partial"`
}

// pipeline is the request scoped state threaded through the stages
type pipeline struct {
	// ctx is the caller context, used for local evaluation after the
	// network deadline has passed
	ctx     context.Context
	session *Session
	profile *TasteProfile
	history idSet
	stats   *Stats
}

func (r *Recommender) newPipeline(ctx context.Context, history []*model.HistoryItem) (context.Context, *pipeline) {
	session := newSession(r.now(), r.seed())
	ctx = logging.With(ctx, logging.From(ctx).With("session_id", session.ID))

	return ctx, &pipeline{
		ctx:     ctx,
		session: session,
		profile: AnalyzeProfile(history, r.cfg.DefaultLanguage),
		history: historyIDs(history),
		stats:   &Stats{},
	}
}

// targetCount applies the default and bounds to a caller supplied count
func (r *Recommender) targetCount(count, defaultCount int) (int, error) {
	if count == 0 {
		return defaultCount, nil
	}
	if count < 0 || count > r.cfg.MaxTargetCount {
		return 0, goerr.Wrap(ErrInvalidTargetCount, "target count out of range",
			goerr.V("target_count", count),
			goerr.V("max", r.cfg.MaxTargetCount))
	}
	return count, nil
}

// Recommend returns up to TargetCount movies for the mood, none of which is
// in the history. Upstream failures yield fewer or zero movies. Only an
// invalid mood or target count is returned as an error.
func (r *Recommender) Recommend(ctx context.Context, input Input) (*Response, error) {
	if err := input.Mood.Validate(); err != nil {
		return nil, err
	}
	target, err := r.targetCount(input.TargetCount, r.cfg.TargetCount)
	if err != nil {
		return nil, err
	}

	ctx, p := r.newPipeline(ctx, input.History)
	logger := logging.From(ctx)

	netCtx := ctx
	if input.Timeout > 0 {
		var cancel context.CancelFunc
		netCtx, cancel = context.WithTimeout(ctx, input.Timeout)
		defer cancel()
	}

	prompts, err := BuildPrompts(p.profile, input.Mood, p.session, r.cfg.CandidatesPerCall)
	if err != nil {
		return nil, err
	}

	logger.Info("generating suggestions",
		"mood", input.Mood,
		"variants", len(prompts),
		"history", p.profile.Items,
		"target", target)

	outcomes := r.generate(netCtx, prompts, p.session)

	var cands []*model.Candidate
	for _, o := range outcomes {
		if !o.OK() {
			p.stats.VariantsFailed++
			continue
		}
		p.stats.VariantsSucceeded++
		parsed := ParseCandidates(o.Value)
		if len(parsed) == 0 {
			logger.Warn("no candidates in suggestion response", "variant", prompts[o.Index].Variant)
		}
		p.stats.ParsedCandidates += len(parsed)
		cands = append(cands, parsed...)
	}

	unique := DedupCandidates(cands)
	p.stats.UniqueCandidates = len(unique)
	unique = capCandidates(unique, p.session, r.cfg.MaxCandidates)

	movies := r.resolveAll(netCtx, p, unique)
	movies = r.backfill(netCtx, p, movies, target)
	movies = Select(movies, p.session, target)

	resp := &Response{
		ID:        model.NewRecommendationID(),
		SessionID: p.session.ID,
		Mood:      input.Mood,
		CreatedAt: p.session.Timestamp,
		Movies:    movies,
		Stats:     *p.stats,
		Partial:   netCtx.Err() != nil,
	}

	logger.Info("recommendations ready",
		"count", len(resp.Movies),
		"partial", resp.Partial,
		"stats", resp.Stats)

	return resp, nil
}

// resolveAll resolves candidates and applies history, identity and filter
// exclusions
func (r *Recommender) resolveAll(ctx context.Context, p *pipeline, cands []*model.Candidate) []*model.Movie {
	outcomes := r.resolve(ctx, cands)
	resolved := resolvedMovies(outcomes)
	p.stats.Resolved = len(resolved)
	p.stats.Unresolved = len(outcomes) - len(resolved)

	unique := dedupMovies(resolved, p.history)
	allowed := make([]*model.Movie, 0, len(unique))
	for _, m := range unique {
		if r.allow(p.ctx, m, p.stats) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

// allow consults the filter. A filter error rejects the movie.
func (r *Recommender) allow(ctx context.Context, movie *model.Movie, stats *Stats) bool {
	if r.filter == nil {
		return true
	}

	ok, err := r.filter.Allow(ctx, movie)
	if err != nil {
		logging.From(ctx).Warn("item filter failed, rejecting movie",
			"movie_id", movie.ID,
			"title", movie.Title,
			"error", err)
		ok = false
	}
	if !ok {
		stats.PolicyRejected++
	}
	return ok
}
