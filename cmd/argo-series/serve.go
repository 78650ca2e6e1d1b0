package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-series/internal/logger"
	"github.com/rxtech-lab/argo-series/internal/server"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// serveAction runs the HTTP API until the process receives SIGINT or SIGTERM.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	appLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	var l loader.Loader

	if provider := cmd.String("provider"); provider != "" {
		l, err = loader.New(loader.Config{
			Provider: loader.ProviderType(provider),
			DataPath: cmd.String("path"),
			Column:   loader.Column(cmd.String("column")),
			Interval: cmd.String("interval"),
			BaseURL:  cmd.String("base-url"),
		}, appLogger.Logger)
		if err != nil {
			return err
		}

		if ttl := cmd.Duration("cache-ttl"); ttl > 0 {
			l = loader.NewCachedLoader(l, ttl, appLogger.Logger)
		}
		defer l.Close()
	}

	resampler := timeseries.NewResampler(
		timeseries.WithLogger(appLogger.Logger),
		timeseries.WithWorkers(int(cmd.Int("workers"))),
		timeseries.WithParallelThreshold(int(cmd.Int("parallel-threshold"))),
		timeseries.WithAnnualVolatility(cmd.Float("volatility")),
	)

	srv := server.New(server.Config{
		Resampler: resampler,
		Loader:    l,
		Logger:    appLogger,
	})

	if err := srv.Start(cmd.String("address")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	appLogger.Info("Shutting down", zap.String("address", srv.Address()))

	return srv.Stop()
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the resample API over HTTP and WebSocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "Listen address",
				Value:   ":8080",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Data provider backing /v1/symbols; leave empty to disable the route",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Parquet file for the duckdb provider",
			},
			&cli.StringFlag{
				Name:  "column",
				Usage: "Price column served by the symbol route",
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Bar interval requested from the yahoo provider",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Override the yahoo endpoint",
			},
			&cli.DurationFlag{
				Name:  "cache-ttl",
				Usage: "How long loaded series are kept in memory; 0 disables the cache",
				Value: loader.DefaultCacheTTL,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel chunks; 0 uses GOMAXPROCS",
			},
			&cli.IntFlag{
				Name:  "parallel-threshold",
				Usage: "Target length at which resampling runs in parallel",
				Value: timeseries.DefaultParallelThreshold,
			},
			&cli.FloatFlag{
				Name:  "volatility",
				Usage: "Annualised volatility of the stochastic bridge",
				Value: interpolation.DefaultAnnualVolatility,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: serveAction,
	}
}
