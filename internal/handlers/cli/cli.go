package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Asthay97/personal-bank-fullstack/internal/mirror"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// Pipeline is the server side: ingestion, the live feed and the HTTP
// endpoints.
type Pipeline interface {
	Start(ctx context.Context) error
	Close()
}

// Viewer is a client of a running server.
type Viewer interface {
	mirror.Dialer
	Snapshot(ctx context.Context) ([]txrecord.Record, error)
}

// Dependencies builds what each command needs. Builders are called only
// by the command that uses them, so viewer commands never touch storage
// or event sources.
type Dependencies struct {
	Pipeline func(ctx context.Context) (Pipeline, error)
	Viewer   func() (Viewer, error)

	// Limits and ReconnectBackoff configure the tail mirror.
	Limits           reconcile.Limits
	ReconnectBackoff time.Duration
}

// Run initializes and executes the txfeed CLI application.
//
// It registers all available commands:
//
//   - `serve`: Runs the ingestion pipeline and serves snapshots and the live feed.
//   - `tail`: Mirrors a running server and prints the feed on every change.
//   - `snapshot`: Prints the current transactions of a running server once.
//
// args are the process arguments, program name included.
func Run(ctx context.Context, args []string, deps Dependencies) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "txfeed",
		Description:           "Real-time transaction feed for a single blockchain account.",
		Usage:                 "txfeed [command] [flags]",
		Commands: []*cli.Command{
			serveCommand(deps.Pipeline),
			tailCommand(deps),
			snapshotCommand(deps.Viewer),
		},
	}

	return app.Run(ctx, args)
}
