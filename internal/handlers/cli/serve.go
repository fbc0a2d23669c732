package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// serveCommand returns a CLI command that runs the full pipeline: event
// ingestion, reconciliation, checkpointing and the HTTP/live endpoints.
//
// Usage example:
//
//	txfeed serve
//
// The process runs until it receives SIGINT or SIGTERM, or ctx ends.
func serveCommand(build func(ctx context.Context) (Pipeline, error)) *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Description: "Starts ingestion and serves the transaction snapshot and live feed.",
		Usage:       "Runs the pipeline. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			p, err := build(ctx)
			if err != nil {
				return err
			}

			if err := p.Start(ctx); err != nil {
				return err
			}
			defer p.Close()

			select {
			case <-quit:
			case <-ctx.Done():
			}
			return nil
		},
	}
}
