package job

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-series/internal/logger"
	"github.com/rxtech-lab/argo-series/pkg/config"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Stage names a step of a job run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageResample Stage = "resample"
	StageRender   Stage = "render"
)

// Stages lists the steps of a run in order.
var Stages = []Stage{StageLoad, StageResample, StageRender}

// Result holds the series produced by a run.
type Result struct {
	RunID     string
	Source    *timeseries.Series
	Resampled *timeseries.Series
}

// Runner loads a series, resamples it onto a regular grid and renders it as CSV.
type Runner struct {
	loader    loader.Loader
	resampler *timeseries.Resampler
	logger    *logger.Logger
	onStage   func(Stage)
}

// Option configures a Runner.
type Option func(*Runner)

// WithStageHook registers fn to be called after each stage completes.
func WithStageHook(fn func(Stage)) Option {
	return func(r *Runner) {
		r.onStage = fn
	}
}

func NewRunner(l loader.Loader, resampler *timeseries.Resampler, log *logger.Logger, opts ...Option) *Runner {
	if resampler == nil {
		resampler = timeseries.DefaultResampler()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	r := &Runner{
		loader:    l,
		resampler: resampler,
		logger:    log,
		onStage:   func(Stage) {},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes the job described by cfg and writes timestamp,value rows to w.
func (r *Runner) Run(ctx context.Context, cfg *config.JobConfig, w io.Writer) (*Result, error) {
	runID := uuid.NewString()
	log := r.logger.With(zap.String("run_id", runID))

	source, err := r.loader.Load(ctx, cfg.Source.Symbol,
		cfg.Source.Start.TakeOr(time.Time{}), cfg.Source.End.TakeOr(time.Time{}))
	if err != nil {
		return nil, err
	}

	log.Info("Loaded series",
		zap.String("symbol", cfg.Source.Symbol),
		zap.String("provider", string(cfg.Source.Provider)),
		zap.Int("points", source.Len()),
	)
	r.onStage(StageLoad)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := buildTarget(source, cfg.Target)
	if err != nil {
		return nil, err
	}

	resampled, err := r.resampler.Resample(source, target, cfg.Strategy, cfg.Seed)
	if err != nil {
		return nil, err
	}

	log.Info("Resampled series",
		zap.String("strategy", cfg.Strategy.String()),
		zap.Int("points", resampled.Len()),
		zap.Duration("step", cfg.Target.Step),
	)
	r.onStage(StageResample)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := Render(w, resampled, cfg.Output.Precision); err != nil {
		return nil, err
	}

	r.onStage(StageRender)

	return &Result{RunID: runID, Source: source, Resampled: resampled}, nil
}

// buildTarget lays the grid over the configured bounds, defaulting each side to the
// loaded series' first or last timestamp.
func buildTarget(source *timeseries.Series, target config.TargetConfig) ([]int64, error) {
	step := target.Step.Milliseconds()
	if step <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "target step %s is below one millisecond", target.Step)
	}

	start := source.TimestampAt(0)
	if target.Start.IsSome() {
		start = target.Start.Unwrap().UnixMilli()
	}

	end := source.TimestampAt(source.Len() - 1)
	if target.End.IsSome() {
		end = target.End.Unwrap().UnixMilli()
	}

	return timeseries.Grid(start, end, step)
}

// Render writes a timestamp,value header followed by one row per point, values fixed to
// precision decimal places.
func Render(w io.Writer, series *timeseries.Series, precision int32) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"timestamp", "value"}); err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to write header", err)
	}

	for _, p := range series.Points() {
		row := []string{strconv.FormatInt(p.Timestamp, 10), formatValue(p.Value, precision)}

		if err := writer.Write(row); err != nil {
			return errors.Wrap(errors.ErrCodeUnknown, "failed to write row", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to flush output", err)
	}

	return nil
}

// decimal cannot represent NaN or infinities
func formatValue(v float64, precision int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return decimal.NewFromFloat(v).StringFixed(precision)
}
