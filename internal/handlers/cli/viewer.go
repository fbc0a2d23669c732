package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/Asthay97/personal-bank-fullstack/internal/mirror"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
)

// snapshotCommand returns a CLI command that queries the current log of
// a running server once and prints it grouped for display.
//
// Usage example:
//
//	TXFEED_SERVER_URL=http://localhost:3001 txfeed snapshot
func snapshotCommand(build func() (Viewer, error)) *cli.Command {
	return &cli.Command{
		Name:        "snapshot",
		Description: "Prints the latest transactions of a running server.",
		Usage:       "Queries the snapshot endpoint once and prints it as a table.",
		Action: func(ctx context.Context, c *cli.Command) error {
			v, err := build()
			if err != nil {
				return err
			}

			log, err := v.Snapshot(ctx)
			if err != nil {
				return err
			}

			return printGroups(c.Root().Writer, reconcile.Arrange(log))
		},
	}
}

// tailCommand returns a CLI command that keeps a local mirror of a
// running server and reprints the feed whenever it changes.
//
// Usage example:
//
//	txfeed tail
func tailCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:        "tail",
		Description: "Follows the live feed of a running server.",
		Usage:       "Mirrors the server, reconnecting on failure, and prints every change.",
		Action: func(ctx context.Context, c *cli.Command) error {
			v, err := deps.Viewer()
			if err != nil {
				return err
			}

			m := mirror.New(v,
				mirror.WithLimits(deps.Limits),
				mirror.WithReconnectBackoff(deps.ReconnectBackoff),
			)

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- m.Run(ctx) }()

			return follow(ctx, c.Root().Writer, m, done)
		},
	}
}

// follow prints the mirror on every change until Run returns. A
// cancelled context is a normal exit.
func follow(ctx context.Context, w io.Writer, m *mirror.Mirror, done <-chan error) error {
	for {
		select {
		case err := <-done:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-m.Changes():
			groups := m.Groups()
			if _, err := fmt.Fprintf(w, "\n[%s] %d transactions\n", m.State(), len(m.Transactions())); err != nil {
				return err
			}
			if err := printGroups(w, groups); err != nil {
				return err
			}
		}
	}
}
