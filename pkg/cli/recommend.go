package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func recommendCommand() *cli.Command {
	var (
		cfg    config
		mood   string
		count  int64
		format string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "mood",
			Aliases:     []string{"m"},
			Usage:       "Current mood (see the moods command)",
			Sources:     cli.EnvVars("CINEMOOD_MOOD"),
			Destination: &mood,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of movies",
			Value:       30,
			Sources:     cli.EnvVars("CINEMOOD_COUNT"),
			Destination: &count,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Output format (table, json)",
			Value:       formatTable,
			Sources:     cli.EnvVars("CINEMOOD_FORMAT"),
			Destination: &format,
		},
	}
	flags = append(flags, recommenderFlags(&cfg)...)
	flags = append(flags, exportFlags(&cfg)...)

	return &cli.Command{
		Name:  "recommend",
		Usage: "Recommend movies for a mood based on the watchlist",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, logger := cfg.newLogger(ctx, errWriter(c))

			m := model.Mood(mood)
			if err := m.Validate(); err != nil {
				return err
			}
			if err := validateFormat(format); err != nil {
				return err
			}

			history, err := cfg.loadHistory(ctx)
			if err != nil {
				return err
			}

			rec, err := cfg.newRecommender(ctx)
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			stop := startSpinner(errWriter(c), fmt.Sprintf("Finding %s movies...", m.Info().Label))
			resp, err := rec.Recommend(ctx, recommend.Input{
				History:     history,
				Mood:        m,
				TargetCount: int(count),
				Timeout:     cfg.timeout,
			})
			stop()
			if err != nil {
				return goerr.Wrap(err, "failed to recommend movies")
			}

			if storage != nil {
				key, err := exportResponse(ctx, storage, cfg.exportPrefix, resp)
				if err != nil {
					return err
				}
				logger.Info("recommendations exported", "bucket", cfg.exportBucket, "key", key)
			}

			return renderResponse(c.Root().Writer, format, resp)
		},
	}
}

func suggestCommand() *cli.Command {
	var (
		cfg    config
		count  int64
		format string
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of movies",
			Value:       20,
			Sources:     cli.EnvVars("CINEMOOD_SUGGEST_COUNT"),
			Destination: &count,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Output format (table, json)",
			Value:       formatTable,
			Sources:     cli.EnvVars("CINEMOOD_FORMAT"),
			Destination: &format,
		},
	}
	flags = append(flags, recommenderFlags(&cfg)...)
	flags = append(flags, exportFlags(&cfg)...)

	return &cli.Command{
		Name:  "suggest",
		Usage: "Suggest recent movies similar to the whole watchlist",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, logger := cfg.newLogger(ctx, errWriter(c))

			if err := validateFormat(format); err != nil {
				return err
			}

			history, err := cfg.loadHistory(ctx)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return goerr.New("watchlist is empty, set history-file or firestore-project and user-id")
			}

			rec, err := cfg.newRecommender(ctx)
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			stop := startSpinner(errWriter(c), "Analyzing your watchlist...")
			resp, err := rec.Suggest(ctx, history, int(count))
			stop()
			if err != nil {
				return goerr.Wrap(err, "failed to suggest movies")
			}

			if storage != nil {
				key, err := exportResponse(ctx, storage, cfg.exportPrefix, resp)
				if err != nil {
					return err
				}
				logger.Info("suggestions exported", "bucket", cfg.exportBucket, "key", key)
			}

			return renderResponse(c.Root().Writer, format, resp)
		},
	}
}

func moodsCommand() *cli.Command {
	return &cli.Command{
		Name:  "moods",
		Usage: "List supported moods",
		Action: func(ctx context.Context, c *cli.Command) error {
			for _, info := range model.Moods() {
				fmt.Fprintf(c.Root().Writer, "%-10s\t%s\t%s\n", info.Mood, info.Label, info.Description)
			}
			return nil
		},
	}
}
