package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Asthay97/personal-bank-fullstack/internal/app"
	"github.com/Asthay97/personal-bank-fullstack/internal/config"
	"github.com/Asthay97/personal-bank-fullstack/internal/handlers/cli"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/telemetry"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Telemetry first: the logger bridges into its provider at Init.
	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	return cli.Run(ctx, os.Args, cli.Dependencies{
		Pipeline: func(ctx context.Context) (cli.Pipeline, error) {
			p, err := app.Build(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Viewer: func() (cli.Viewer, error) {
			v, err := app.NewViewer(cfg)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		Limits:           app.Limits(cfg),
		ReconnectBackoff: cfg.ReconnectBackoff,
	})
}
