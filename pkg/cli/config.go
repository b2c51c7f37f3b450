package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/cinemood/pkg/adapter"
	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/policy"
	"github.com/m-mizutani/cinemood/pkg/repository"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Generative service
	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Catalog
	tmdbAPIKey      string
	tmdbAccessToken string
	tmdbBaseURL     string
	tmdbRPS         float64

	// History store
	historyFile         string
	firestoreProject    string
	firestoreDatabase   string
	firestoreCollection string
	userID              string

	// Pipeline
	timeout     time.Duration
	concurrency int64
	maxOutbound int64

	// Export
	exportBucket string
	exportPrefix string

	// Policy
	policyDir string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("CINEMOOD_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("CINEMOOD_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// llmFlags returns flags for the generative service with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("CINEMOOD_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("CINEMOOD_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("CINEMOOD_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// catalogFlags returns flags for the TMDB catalog with destination config
func catalogFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tmdb-api-key",
			Usage:       "TMDB API key",
			Sources:     cli.EnvVars("CINEMOOD_TMDB_API_KEY", "TMDB_API_KEY"),
			Destination: &cfg.tmdbAPIKey,
		},
		&cli.StringFlag{
			Name:        "tmdb-access-token",
			Usage:       "TMDB read access token, used instead of the API key",
			Sources:     cli.EnvVars("CINEMOOD_TMDB_ACCESS_TOKEN"),
			Destination: &cfg.tmdbAccessToken,
		},
		&cli.StringFlag{
			Name:        "tmdb-base-url",
			Usage:       "TMDB API endpoint",
			Value:       "https://api.themoviedb.org/3",
			Sources:     cli.EnvVars("CINEMOOD_TMDB_BASE_URL"),
			Destination: &cfg.tmdbBaseURL,
		},
		&cli.FloatFlag{
			Name:        "tmdb-rps",
			Usage:       "Maximum TMDB requests per second (0 for unlimited)",
			Sources:     cli.EnvVars("CINEMOOD_TMDB_RPS"),
			Destination: &cfg.tmdbRPS,
		},
	}
}

// historyFlags returns flags selecting the history store with destination config
func historyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-file",
			Aliases:     []string{"f"},
			Usage:       "Watchlist file (JSON or YAML)",
			Sources:     cli.EnvVars("CINEMOOD_HISTORY_FILE"),
			Destination: &cfg.historyFile,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the Firestore watchlist store",
			Sources:     cli.EnvVars("CINEMOOD_FIRESTORE_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("CINEMOOD_FIRESTORE_DATABASE"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection holding watchlists",
			Value:       repository.DefaultWatchlistCollection,
			Sources:     cli.EnvVars("CINEMOOD_FIRESTORE_COLLECTION"),
			Destination: &cfg.firestoreCollection,
		},
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User whose watchlist is loaded",
			Sources:     cli.EnvVars("CINEMOOD_USER_ID"),
			Destination: &cfg.userID,
		},
	}
}

// pipelineFlags returns flags bounding the recommendation pipeline
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Return partial results after this duration (0 for no limit)",
			Value:       45 * time.Second,
			Sources:     cli.EnvVars("CINEMOOD_TIMEOUT"),
			Destination: &cfg.timeout,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Maximum concurrent calls per stage",
			Value:       8,
			Sources:     cli.EnvVars("CINEMOOD_CONCURRENCY"),
			Destination: &cfg.concurrency,
		},
		&cli.IntFlag{
			Name:        "max-outbound",
			Usage:       "Maximum concurrent upstream requests",
			Value:       16,
			Sources:     cli.EnvVars("CINEMOOD_MAX_OUTBOUND"),
			Destination: &cfg.maxOutbound,
		},
	}
}

// exportFlags returns flags for exporting results to Cloud Storage
func exportFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "export-bucket",
			Usage:       "Cloud Storage bucket receiving the result as JSON",
			Sources:     cli.EnvVars("CINEMOOD_EXPORT_BUCKET"),
			Destination: &cfg.exportBucket,
		},
		&cli.StringFlag{
			Name:        "export-prefix",
			Usage:       "Object key prefix for exported results",
			Value:       "recommendations",
			Sources:     cli.EnvVars("CINEMOOD_EXPORT_PREFIX"),
			Destination: &cfg.exportPrefix,
		},
	}
}

// policyFlags returns flags for the Rego item policy
func policyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of .rego files vetoing recommended movies",
			Sources:     cli.EnvVars("CINEMOOD_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// recommenderFlags returns every flag needed by newRecommender
func recommenderFlags(cfg *config) []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, globalFlags(cfg)...)
	flags = append(flags, llmFlags(cfg)...)
	flags = append(flags, catalogFlags(cfg)...)
	flags = append(flags, historyFlags(cfg)...)
	flags = append(flags, pipelineFlags(cfg)...)
	flags = append(flags, policyFlags(cfg)...)
	return flags
}

// newLogger creates the logger and installs it as default and into ctx
func (cfg *config) newLogger(ctx context.Context, w io.Writer) (context.Context, *slog.Logger) {
	logger := logging.NewWithFormat(logging.Format(cfg.logFormat), cfg.logLevel, w)
	logging.SetDefault(logger)
	return logging.With(ctx, logger), logger
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return client, nil
}

// newCatalog creates a new TMDB catalog client
func (cfg *config) newCatalog() (adapter.Catalog, error) {
	if cfg.tmdbAPIKey == "" && cfg.tmdbAccessToken == "" {
		return nil, goerr.New("tmdb-api-key or tmdb-access-token is required")
	}

	opts := []adapter.TMDBOption{
		adapter.WithTMDBRateLimit(cfg.tmdbRPS),
	}
	if cfg.tmdbBaseURL != "" {
		opts = append(opts, adapter.WithTMDBBaseURL(cfg.tmdbBaseURL))
	}
	if cfg.tmdbAccessToken != "" {
		opts = append(opts, adapter.WithTMDBAccessToken(cfg.tmdbAccessToken))
	}
	return adapter.NewTMDB(cfg.tmdbAPIKey, opts...), nil
}

// newHistoryReader selects the history store. It returns nil when none is
// configured, meaning an empty watchlist.
func (cfg *config) newHistoryReader(ctx context.Context) (repository.HistoryReader, func(), error) {
	switch {
	case cfg.historyFile != "" && cfg.firestoreProject != "":
		return nil, nil, goerr.New("history-file and firestore-project are mutually exclusive")

	case cfg.historyFile != "":
		return repository.NewFile(cfg.historyFile), func() {}, nil

	case cfg.firestoreProject != "":
		store, err := repository.New(ctx, cfg.firestoreProject, cfg.firestoreDatabase,
			repository.WithCollection(cfg.firestoreCollection))
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create history store")
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logging.From(ctx).Warn("failed to close history store", "error", err)
			}
		}, nil
	}

	return nil, func() {}, nil
}

// loadHistory reads the configured user's watchlist
func (cfg *config) loadHistory(ctx context.Context) ([]*model.HistoryItem, error) {
	reader, closer, err := cfg.newHistoryReader(ctx)
	if err != nil {
		return nil, err
	}
	defer closer()

	if reader == nil {
		return nil, nil
	}
	if cfg.firestoreProject != "" && cfg.userID == "" {
		return nil, goerr.New("user-id is required with firestore-project")
	}

	items, err := reader.ListHistory(ctx, cfg.userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load history", goerr.V("user_id", cfg.userID))
	}
	logging.From(ctx).Debug("history loaded", "items", len(items))
	return items, nil
}

// newPolicy loads the item policy. It returns nil when no policy is configured.
func (cfg *config) newPolicy(ctx context.Context) (*policy.Policy, error) {
	if cfg.policyDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(cfg.policyDir); err != nil {
		return nil, goerr.Wrap(err, "policy directory is not accessible", goerr.V("dir", cfg.policyDir))
	}

	p, err := policy.Load(ctx, cfg.policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load policy")
	}
	return p, nil
}

// recommendConfig applies pipeline flags to the default configuration
func (cfg *config) recommendConfig() (recommend.Config, error) {
	rc := recommend.DefaultConfig()
	rc.Concurrency = int(cfg.concurrency)
	rc.MaxOutbound = int(cfg.maxOutbound)
	if err := rc.Validate(); err != nil {
		return rc, err
	}
	return rc, nil
}

// newRecommender wires the pipeline from flags
func (cfg *config) newRecommender(ctx context.Context) (*recommend.Recommender, error) {
	rc, err := cfg.recommendConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := cfg.newCatalog()
	if err != nil {
		return nil, err
	}

	p, err := cfg.newPolicy(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	opts := []recommend.Option{recommend.WithConfig(rc)}
	if p != nil {
		opts = append(opts, recommend.WithFilter(p))
	}

	rec, err := recommend.New(gemini, catalog, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create recommender")
	}
	return rec, nil
}

// newStorage creates a new Storage adapter instance. It returns nil when no
// export bucket is configured.
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.exportBucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.exportBucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.V("bucket", cfg.exportBucket))
	}
	return storage, nil
}
