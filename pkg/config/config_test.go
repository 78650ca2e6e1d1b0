package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const fullConfig = `
requires: ">= 0.1"
source:
  provider: duckdb
  path: data/aapl.parquet
  symbol: AAPL
  column: open
  start: 2024-01-02T00:00:00Z
  end: 2024-01-16T00:00:00Z
target:
  step: 1h
  start: 2024-01-03T00:00:00Z
strategy: Stochastic
seed: 42
engine:
  workers: 4
  parallel_threshold: 5000
  annual_volatility: 0.3
output:
  precision: 2
`

func (suite *ConfigTestSuite) TestParseFull() {
	cfg, err := Parse([]byte(fullConfig))
	suite.Require().NoError(err)

	suite.Equal(">= 0.1", cfg.Requires)
	suite.Equal(loader.ProviderDuckDB, cfg.Source.Provider)
	suite.Equal("data/aapl.parquet", cfg.Source.Path)
	suite.Equal("AAPL", cfg.Source.Symbol)
	suite.Equal(loader.ColumnOpen, cfg.Source.Column)
	suite.True(cfg.Source.Start.IsSome())
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), cfg.Source.Start.Unwrap().UTC())
	suite.Equal(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), cfg.Source.End.Unwrap().UTC())

	suite.Equal(time.Hour, cfg.Target.Step)
	suite.True(cfg.Target.Start.IsSome())
	suite.True(cfg.Target.End.IsNone())

	suite.Equal(interpolation.Stochastic, cfg.Strategy)
	suite.True(cfg.Seed.IsSome())
	suite.Equal(uint64(42), cfg.Seed.Unwrap())

	suite.Equal(EngineConfig{Workers: 4, ParallelThreshold: 5000, AnnualVolatility: 0.3}, cfg.Engine)
	suite.Equal(int32(2), cfg.Output.Precision)
}

func (suite *ConfigTestSuite) TestParseAppliesDefaults() {
	cfg, err := Parse([]byte(`
source:
  provider: yahoo
  symbol: MSFT
target:
  step: 15m
`))
	suite.Require().NoError(err)

	suite.Equal(loader.ColumnClose, cfg.Source.Column)
	suite.True(cfg.Source.Start.IsNone())
	suite.Equal(interpolation.Linear, cfg.Strategy)
	suite.True(cfg.Seed.IsNone())
	suite.Equal(timeseries.DefaultParallelThreshold, cfg.Engine.ParallelThreshold)
	suite.Equal(interpolation.DefaultAnnualVolatility, cfg.Engine.AnnualVolatility)
	suite.Equal(DefaultPrecision, cfg.Output.Precision)
}

func (suite *ConfigTestSuite) TestParseErrors() {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "malformed yaml",
			yaml: "source: [",
		},
		{
			name: "missing symbol",
			yaml: "source: {provider: yahoo}\ntarget: {step: 1h}",
		},
		{
			name: "duckdb without path",
			yaml: "source: {provider: duckdb, symbol: A}\ntarget: {step: 1h}",
		},
		{
			name: "unknown provider",
			yaml: "source: {provider: polygon, symbol: A}\ntarget: {step: 1h}",
		},
		{
			name: "missing step",
			yaml: "source: {provider: yahoo, symbol: A}",
		},
		{
			name: "negative step",
			yaml: "source: {provider: yahoo, symbol: A}\ntarget: {step: -1h}",
		},
		{
			name: "unknown strategy",
			yaml: "source: {provider: yahoo, symbol: A}\ntarget: {step: 1h}\nstrategy: cubic",
		},
		{
			name: "negative workers",
			yaml: "source: {provider: yahoo, symbol: A}\ntarget: {step: 1h}\nengine: {workers: -1}",
		},
		{
			name: "precision too large",
			yaml: "source: {provider: yahoo, symbol: A}\ntarget: {step: 1h}\noutput: {precision: 20}",
		},
		{
			name: "source end before start",
			yaml: "source: {provider: yahoo, symbol: A, start: 2024-02-01T00:00:00Z, end: 2024-01-01T00:00:00Z}\ntarget: {step: 1h}",
		},
		{
			name: "target end before start",
			yaml: "source: {provider: yahoo, symbol: A}\ntarget: {step: 1h, start: 2024-02-01T00:00:00Z, end: 2024-01-01T00:00:00Z}",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Parse([]byte(tc.yaml))
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *ConfigTestSuite) TestLoad() {
	path := filepath.Join(suite.T().TempDir(), "job.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(fullConfig), 0o600))

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("AAPL", cfg.Source.Symbol)

	_, err = Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoaderConfig() {
	cfg, err := Parse([]byte(fullConfig))
	suite.Require().NoError(err)

	suite.Equal(loader.Config{
		Provider: loader.ProviderDuckDB,
		DataPath: "data/aapl.parquet",
		Column:   loader.ColumnOpen,
	}, cfg.LoaderConfig())
}

func (suite *ConfigTestSuite) TestResamplerOptions() {
	cfg := Default()
	cfg.Engine.Workers = 3

	suite.Len(cfg.ResamplerOptions(), 3)
	suite.NotNil(timeseries.NewResampler(cfg.ResamplerOptions()...))
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	schemaJSON, err := GenerateSchemaJSON()
	suite.Require().NoError(err)

	var decoded map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &decoded))

	suite.Equal("argo-series-job", decoded["title"])
	suite.Contains(schemaJSON, `"strategy"`)
	suite.Contains(schemaJSON, `"stochastic"`)
	suite.Contains(schemaJSON, `"date-time"`)
	suite.Contains(schemaJSON, `"parallel_threshold"`)
}
