package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "cinemood",
		Usage: "Mood based movie recommendations from your watchlist",
		Commands: []*cli.Command{
			recommendCommand(),
			suggestCommand(),
			moodsCommand(),
			exploreCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// errWriter is the destination of logs and progress output
func errWriter(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
