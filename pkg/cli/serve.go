package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/cinemood/pkg/repository"
	"github.com/m-mizutani/cinemood/pkg/service/mcp"
	"github.com/m-mizutani/cinemood/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Serve MCP over streamable HTTP on this address instead of stdio",
			Sources:     cli.EnvVars("CINEMOOD_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, recommenderFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run an MCP server exposing recommendation tools",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, logger := cfg.newLogger(ctx, errWriter(c))

			rec, err := cfg.newRecommender(ctx)
			if err != nil {
				return err
			}

			reader, closer, err := cfg.newHistoryReader(ctx)
			if err != nil {
				return err
			}
			defer closer()

			opts := []mcp.Option{mcp.WithTimeout(cfg.timeout)}
			if reader != nil {
				opts = append(opts, mcp.WithHistoryReader(reader))
			}
			srv := mcp.NewServer(rec, opts...)

			if addr == "" {
				logger.Info("serving MCP over stdio")
				return srv.Run(ctx)
			}
			return serveHTTP(ctx, addr, srv, reader)
		},
	}
}

func serveHTTP(ctx context.Context, addr string, srv *mcp.Server, reader repository.HistoryReader) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("serving MCP over HTTP", "addr", addr, "history_store", reader != nil)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "MCP HTTP server failed", goerr.V("addr", addr))
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down MCP HTTP server")
		}
		return nil
	}
}
