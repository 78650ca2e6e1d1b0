package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/internal/job"
	"github.com/rxtech-lab/argo-series/internal/logger"
	"github.com/rxtech-lab/argo-series/internal/version"
	"github.com/rxtech-lab/argo-series/pkg/config"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// resampleAction loads the configured series, resamples it and writes CSV output.
func resampleAction(ctx context.Context, cmd *cli.Command) error {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	appLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := version.CheckRequirement(cfg.Requires, version.GetVersion()); err != nil {
		return err
	}

	l, err := loader.New(cfg.LoaderConfig(), appLogger.Logger)
	if err != nil {
		return err
	}
	defer l.Close()

	resampler := timeseries.NewResampler(append(cfg.ResamplerOptions(), timeseries.WithLogger(appLogger.Logger))...)

	out := cmd.Root().Writer
	if path := cmd.String("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		out = file
	}

	var opts []job.Option

	if !cmd.Bool("quiet") {
		bar := progressbar.NewOptions(len(job.Stages),
			progressbar.OptionSetDescription(fmt.Sprintf("Resampling %s", cfg.Source.Symbol)),
			progressbar.OptionSetWriter(cmd.Root().ErrWriter),
			progressbar.OptionShowCount(),
		)
		defer bar.Finish()

		opts = append(opts, job.WithStageHook(func(stage job.Stage) {
			bar.Describe(fmt.Sprintf("Resampling %s (%s)", cfg.Source.Symbol, stage))
			_ = bar.Add(1)
		}))
	}

	result, err := job.NewRunner(l, resampler, appLogger, opts...).Run(ctx, cfg, out)
	if err != nil {
		return fmt.Errorf("resample failed: %w", err)
	}

	appLogger.Info("Resample completed",
		zap.String("run_id", result.RunID),
		zap.Int("source_points", result.Source.Len()),
		zap.Int("target_points", result.Resampled.Len()),
	)

	return nil
}

// buildConfig starts from --config when given, otherwise from defaults, and lets explicitly
// set flags override individual fields.
func buildConfig(cmd *cli.Command) (*config.JobConfig, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = *loaded
	}

	if cmd.IsSet("provider") {
		cfg.Source.Provider = loader.ProviderType(cmd.String("provider"))
	}

	if cmd.IsSet("path") {
		cfg.Source.Path = cmd.String("path")
	}

	if cmd.IsSet("symbol") {
		cfg.Source.Symbol = cmd.String("symbol")
	}

	if cmd.IsSet("column") {
		cfg.Source.Column = loader.Column(cmd.String("column"))
	}

	if cmd.IsSet("start") {
		cfg.Source.Start = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		cfg.Source.End = optional.Some(cmd.Timestamp("end"))
	}

	if cmd.IsSet("interval") {
		cfg.Source.Interval = cmd.String("interval")
	}

	if cmd.IsSet("base-url") {
		cfg.Source.BaseURL = cmd.String("base-url")
	}

	if cmd.IsSet("step") {
		cfg.Target.Step = cmd.Duration("step")
	}

	if cmd.IsSet("strategy") {
		cfg.Strategy = interpolation.Strategy(cmd.String("strategy"))
	}

	if cmd.IsSet("seed") {
		seed, err := strconv.ParseUint(cmd.String("seed"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", cmd.String("seed"), err)
		}

		cfg.Seed = optional.Some(seed)
	}

	if cmd.IsSet("workers") {
		cfg.Engine.Workers = int(cmd.Int("workers"))
	}

	if cmd.IsSet("parallel-threshold") {
		cfg.Engine.ParallelThreshold = int(cmd.Int("parallel-threshold"))
	}

	if cmd.IsSet("volatility") {
		cfg.Engine.AnnualVolatility = cmd.Float("volatility")
	}

	if cmd.IsSet("precision") {
		cfg.Output.Precision = int32(cmd.Int("precision"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	for _, name := range loader.GetSupportedProviders() {
		info, err := loader.GetProviderInfo(name)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(cmd.Root().Writer, "%-8s %s\n", info.Name, info.Description); err != nil {
			return err
		}
	}

	return nil
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	timestampConfig := cli.TimestampConfig{
		Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"},
	}

	strategies := make([]string, 0, len(interpolation.AllStrategies))
	for _, s := range interpolation.AllStrategies {
		strategies = append(strategies, s.String())
	}

	return &cli.Command{
		Name:      "argo-series",
		Usage:     "Resample irregular price series onto regular grids",
		Version:   version.GetVersion(),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:  "resample",
				Usage: "Load a series and resample it onto a regular grid",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to a YAML job configuration; flags override its fields",
					},
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   fmt.Sprintf("Data provider to use (%s)", strings.Join(loader.GetSupportedProviders(), ", ")),
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Parquet file for the duckdb provider",
					},
					&cli.StringFlag{
						Name:    "symbol",
						Aliases: []string{"t"},
						Usage:   "Ticker symbol",
					},
					&cli.StringFlag{
						Name:  "column",
						Usage: "Price column to resample (open, high, low, close, volume)",
					},
					&cli.TimestampFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "Start of the loaded range in `YYYY-MM-DD` format (or RFC3339)",
						Config:  timestampConfig,
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End of the loaded range in `YYYY-MM-DD` format (or RFC3339)",
						Config:  timestampConfig,
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
						Name:  "step",
						Usage: "Grid spacing, e.g. 1h or 15m",
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: fmt.Sprintf("Interpolation strategy (%s)", strings.Join(strategies, ", ")),
					},
					&cli.StringFlag{
						Name:  "seed",
						Usage: "Seed for reproducible stochastic output",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Parallel chunks; 0 uses GOMAXPROCS",
					},
					&cli.IntFlag{
						Name:  "parallel-threshold",
						Usage: "Target length at which resampling runs in parallel",
					},
					&cli.FloatFlag{
						Name:  "volatility",
						Usage: "Annualised volatility of the stochastic bridge",
					},
					&cli.IntFlag{
						Name:  "precision",
						Usage: "Decimal places in rendered values",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write CSV to this file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Hide the progress bar",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable debug logging",
					},
				},
				Action: resampleAction,
			},
			serveCommand(),
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the job configuration",
				Action: schemaAction,
			},
			{
				Name:   "providers",
				Usage:  "List the supported data providers",
				Action: providersAction,
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
