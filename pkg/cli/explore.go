package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func exploreCommand() *cli.Command {
	var (
		cfg   config
		count int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Default number of movies per request",
			Value:       10,
			Sources:     cli.EnvVars("CINEMOOD_COUNT"),
			Destination: &count,
		},
	}
	flags = append(flags, recommenderFlags(&cfg)...)

	return &cli.Command{
		Name:  "explore",
		Usage: "Interactive mode: type a mood and get recommendations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, _ = cfg.newLogger(ctx, errWriter(c))

			history, err := cfg.loadHistory(ctx)
			if err != nil {
				return err
			}

			rec, err := cfg.newRecommender(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "mood> ",
				AutoComplete:    exploreCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          c.Root().Writer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start interactive mode")
			}
			defer rl.Close()

			e := &explorer{
				rec:     rec,
				history: history,
				count:   int(count),
				timeout: cfg.timeout,
				w:       c.Root().Writer,
			}
			fmt.Fprintf(e.w, "Watchlist has %d movies. Type a mood, \"moods\", \"suggest\" or \"exit\".\n", len(history))

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				if done := e.handle(ctx, line); done {
					return nil
				}
			}
		},
	}
}

func exploreCompleter() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("moods"),
		readline.PcItem("suggest"),
		readline.PcItem("exit"),
	}
	for _, m := range model.AllMoods {
		items = append(items, readline.PcItem(string(m)))
	}
	return readline.NewPrefixCompleter(items...)
}

// recommender is the pipeline surface used by interactive mode
type recommender interface {
	Recommend(ctx context.Context, input recommend.Input) (*recommend.Response, error)
	Suggest(ctx context.Context, history []*model.HistoryItem, count int) (*recommend.Response, error)
}

type explorer struct {
	rec     recommender
	history []*model.HistoryItem
	count   int
	timeout time.Duration
	w       io.Writer
}

// handle runs one input line and reports whether the session should end
func (e *explorer) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	count := e.count
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			fmt.Fprintf(e.w, "invalid count: %q\n", fields[1])
			return false
		}
		count = n
	}

	switch fields[0] {
	case "exit", "quit":
		return true

	case "moods":
		for _, info := range model.Moods() {
			fmt.Fprintf(e.w, "  %-10s %s\n", info.Mood, info.Label)
		}
		return false

	case "suggest":
		resp, err := e.rec.Suggest(ctx, e.history, count)
		e.print(resp, err)
		return false
	}

	mood := model.Mood(fields[0])
	if err := mood.Validate(); err != nil {
		fmt.Fprintf(e.w, "unknown mood %q, type \"moods\" to list them\n", fields[0])
		return false
	}

	resp, err := e.rec.Recommend(ctx, recommend.Input{
		History:     e.history,
		Mood:        mood,
		TargetCount: count,
		Timeout:     e.timeout,
	})
	e.print(resp, err)
	return false
}

func (e *explorer) print(resp *recommend.Response, err error) {
	if err != nil {
		fmt.Fprintf(e.w, "error: %v\n", err)
		return
	}
	if err := renderResponse(e.w, formatTable, resp); err != nil {
		fmt.Fprintf(e.w, "error: %v\n", err)
	}
}
