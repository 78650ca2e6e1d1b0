package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"gopkg.in/yaml.v3"
)

const DefaultPrecision int32 = 4

// JobConfig describes a single resample job: where the series comes from, the grid it is
// resampled onto and how the result is rendered.
type JobConfig struct {
	Requires string                  `yaml:"requires" json:"requires,omitempty" jsonschema:"title=Requires,description=Semver range the argo-series binary must satisfy"`
	Source   SourceConfig            `yaml:"source" json:"source" jsonschema:"title=Source,description=Where the input series is loaded from"`
	Target   TargetConfig            `yaml:"target" json:"target" jsonschema:"title=Target,description=The regular grid the series is resampled onto"`
	Strategy interpolation.Strategy  `yaml:"strategy" json:"strategy" validate:"required,oneof=linear nearest stochastic" jsonschema:"title=Strategy,description=Interpolation strategy,enum=linear,enum=nearest,enum=stochastic,default=linear"`
	Seed     optional.Option[uint64] `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Optional seed making stochastic output reproducible"`
	Engine   EngineConfig            `yaml:"engine" json:"engine" jsonschema:"title=Engine,description=Resampler tuning"`
	Output   OutputConfig            `yaml:"output" json:"output" jsonschema:"title=Output,description=Rendering options"`
}

type SourceConfig struct {
	Provider loader.ProviderType        `yaml:"provider" json:"provider" validate:"required,oneof=duckdb yahoo" jsonschema:"title=Provider,enum=duckdb,enum=yahoo"`
	Path     string                     `yaml:"path" json:"path,omitempty" validate:"required_if=Provider duckdb" jsonschema:"title=Path,description=Parquet file read by the duckdb provider"`
	Symbol   string                     `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,description=Ticker to load"`
	Column   loader.Column              `yaml:"column" json:"column,omitempty" validate:"omitempty,oneof=open high low close volume" jsonschema:"title=Column,enum=open,enum=high,enum=low,enum=close,enum=volume,default=close"`
	Start    optional.Option[time.Time] `yaml:"start" json:"start,omitempty" jsonschema:"title=Start,description=Optional start of the loaded range"`
	End      optional.Option[time.Time] `yaml:"end" json:"end,omitempty" jsonschema:"title=End,description=Optional end of the loaded range"`
	Interval string                     `yaml:"interval" json:"interval,omitempty" jsonschema:"title=Interval,description=Bar interval requested from the yahoo provider"`
	BaseURL  string                     `yaml:"base_url" json:"base_url,omitempty" validate:"omitempty,url" jsonschema:"title=Base URL,description=Override for the yahoo endpoint"`
}

type TargetConfig struct {
	Step  time.Duration              `yaml:"step" json:"step" validate:"gt=0" jsonschema:"title=Step,description=Grid spacing such as 1h or 15m"`
	Start optional.Option[time.Time] `yaml:"start" json:"start,omitempty" jsonschema:"title=Start,description=First grid point; defaults to the first loaded timestamp"`
	End   optional.Option[time.Time] `yaml:"end" json:"end,omitempty" jsonschema:"title=End,description=Last grid point bound; defaults to the last loaded timestamp"`
}

type EngineConfig struct {
	Workers           int     `yaml:"workers" json:"workers" validate:"gte=0" jsonschema:"title=Workers,description=Parallel chunks; 0 uses GOMAXPROCS,minimum=0"`
	ParallelThreshold int     `yaml:"parallel_threshold" json:"parallel_threshold" validate:"gte=0" jsonschema:"title=Parallel Threshold,description=Target length at which resampling runs in parallel,minimum=0"`
	AnnualVolatility  float64 `yaml:"annual_volatility" json:"annual_volatility" validate:"gte=0" jsonschema:"title=Annual Volatility,description=Volatility of the stochastic bridge,minimum=0"`
}

type OutputConfig struct {
	Precision int32 `yaml:"precision" json:"precision" validate:"gte=0,lte=12" jsonschema:"title=Precision,description=Decimal places in rendered values,minimum=0,maximum=12"`
}

// Default returns a JobConfig with every tunable at its default value.
func Default() JobConfig {
	return JobConfig{
		Source: SourceConfig{
			Column: loader.ColumnClose,
			Start:  optional.None[time.Time](),
			End:    optional.None[time.Time](),
		},
		Target: TargetConfig{
			Start: optional.None[time.Time](),
			End:   optional.None[time.Time](),
		},
		Strategy: interpolation.Linear,
		Seed:     optional.None[uint64](),
		Engine: EngineConfig{
			ParallelThreshold: timeseries.DefaultParallelThreshold,
			AnnualVolatility:  interpolation.DefaultAnnualVolatility,
		},
		Output: OutputConfig{Precision: DefaultPrecision},
	}
}

// UnmarshalYAML implements custom unmarshaling for JobConfig.
func (c *JobConfig) UnmarshalYAML(value *yaml.Node) error {
	type source struct {
		Provider loader.ProviderType `yaml:"provider"`
		Path     string              `yaml:"path"`
		Symbol   string              `yaml:"symbol"`
		Column   loader.Column       `yaml:"column"`
		Start    *time.Time          `yaml:"start"`
		End      *time.Time          `yaml:"end"`
		Interval string              `yaml:"interval"`
		BaseURL  string              `yaml:"base_url"`
	}

	type target struct {
		Step  time.Duration `yaml:"step"`
		Start *time.Time    `yaml:"start"`
		End   *time.Time    `yaml:"end"`
	}

	type raw struct {
		Requires string                 `yaml:"requires"`
		Source   source                 `yaml:"source"`
		Target   target                 `yaml:"target"`
		Strategy interpolation.Strategy `yaml:"strategy"`
		Seed     *uint64                `yaml:"seed"`
		Engine   EngineConfig           `yaml:"engine"`
		Output   OutputConfig           `yaml:"output"`
	}

	defaults := Default()
	cfg := raw{
		Source:   source{Column: defaults.Source.Column},
		Strategy: defaults.Strategy,
		Engine:   defaults.Engine,
		Output:   defaults.Output,
	}

	if err := value.Decode(&cfg); err != nil {
		return err
	}

	*c = defaults
	c.Requires = cfg.Requires
	c.Source = SourceConfig{
		Provider: cfg.Source.Provider,
		Path:     cfg.Source.Path,
		Symbol:   cfg.Source.Symbol,
		Column:   cfg.Source.Column,
		Start:    fromPtr(cfg.Source.Start),
		End:      fromPtr(cfg.Source.End),
		Interval: cfg.Source.Interval,
		BaseURL:  cfg.Source.BaseURL,
	}
	c.Target = TargetConfig{
		Step:  cfg.Target.Step,
		Start: fromPtr(cfg.Target.Start),
		End:   fromPtr(cfg.Target.End),
	}
	c.Strategy = cfg.Strategy
	c.Seed = fromPtr(cfg.Seed)
	c.Engine = cfg.Engine
	c.Output = cfg.Output

	return nil
}

// Validate checks field constraints and the ordering of the optional time bounds.
// The strategy name is normalised in place.
func (c *JobConfig) Validate() error {
	if c.Strategy != "" {
		if strategy, err := interpolation.ParseStrategy(string(c.Strategy)); err == nil {
			c.Strategy = strategy
		}
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid job configuration", err)
	}

	if err := checkBounds("source", c.Source.Start, c.Source.End); err != nil {
		return err
	}

	return checkBounds("target", c.Target.Start, c.Target.End)
}

// LoaderConfig returns the loader settings described by the source section.
func (c *JobConfig) LoaderConfig() loader.Config {
	return loader.Config{
		Provider: c.Source.Provider,
		DataPath: c.Source.Path,
		Column:   c.Source.Column,
		Interval: c.Source.Interval,
		BaseURL:  c.Source.BaseURL,
	}
}

// ResamplerOptions maps the engine section onto resampler options.
func (c *JobConfig) ResamplerOptions() []timeseries.ResamplerOption {
	return []timeseries.ResamplerOption{
		timeseries.WithWorkers(c.Engine.Workers),
		timeseries.WithParallelThreshold(c.Engine.ParallelThreshold),
		timeseries.WithAnnualVolatility(c.Engine.AnnualVolatility),
	}
}

// Parse decodes and validates a YAML job configuration.
func Parse(data []byte) (*JobConfig, error) {
	var cfg JobConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse job configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads and parses the YAML job configuration at path.
func Load(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

func checkBounds(section string, start, end optional.Option[time.Time]) error {
	if start.IsSome() && end.IsSome() && end.Unwrap().Before(start.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s end %s is before start %s",
			section, end.Unwrap().Format(time.RFC3339), start.Unwrap().Format(time.RFC3339))
	}

	return nil
}

func fromPtr[T any](v *T) optional.Option[T] {
	if v == nil {
		return optional.None[T]()
	}

	return optional.Some(*v)
}
