package loader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"go.uber.org/zap"
)

// Loader fetches a series for a symbol over a time range.
// Implementations return timestamps in milliseconds, strictly increasing, and an error
// with ErrCodeDataUnavailable when the range holds no data.
type Loader interface {
	// Load returns the series for symbol between start and end, both inclusive.
	// A zero start or end leaves that side of the range open.
	Load(ctx context.Context, symbol string, start time.Time, end time.Time) (*timeseries.Series, error)
	// Close releases any resources held by the loader.
	Close() error
}

// ProviderType defines where a loader reads its data from.
type ProviderType string

const (
	ProviderDuckDB ProviderType = "duckdb"
	ProviderYahoo  ProviderType = "yahoo"
)

// Column selects which price field becomes the series value.
type Column string

const (
	ColumnOpen   Column = "open"
	ColumnHigh   Column = "high"
	ColumnLow    Column = "low"
	ColumnClose  Column = "close"
	ColumnVolume Column = "volume"
)

// ProviderInfo contains metadata about a loader provider.
type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderDuckDB: {
		Name:        string(ProviderDuckDB),
		DisplayName: "DuckDB",
		Description: "Reads market_data parquet files through an in-memory DuckDB view",
	},
	ProviderYahoo: {
		Name:        string(ProviderYahoo),
		DisplayName: "Yahoo Finance",
		Description: "Reads historical bars from the Yahoo Finance chart API",
	},
}

// GetSupportedProviders returns the names of all supported providers, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// Config holds the configuration needed to build a Loader.
type Config struct {
	Provider ProviderType `validate:"required,oneof=duckdb yahoo"`
	DataPath string       `validate:"required_if=Provider duckdb"`
	Column   Column       `validate:"omitempty,oneof=open high low close volume"`
	Interval string       `validate:"omitempty,oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
	BaseURL  string       `validate:"omitempty,url"`
}

// New creates the loader described by config.
func New(config Config, logger *zap.Logger) (Loader, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid loader configuration", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	column := config.Column
	if column == "" {
		column = ColumnClose
	}

	switch config.Provider {
	case ProviderDuckDB:
		duckLoader, err := NewDuckDBLoader(config.DataPath, column, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB loader: %w", err)
		}

		return duckLoader, nil
	case ProviderYahoo:
		return NewYahooLoader(YahooConfig{
			BaseURL:  config.BaseURL,
			Interval: config.Interval,
			Column:   column,
		}, logger), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", config.Provider)
	}
}

// buildSeries turns ordered observations into a series. Points whose timestamp does not
// move past the previous one are dropped, keeping the first occurrence.
func buildSeries(symbol string, points []timeseries.Point) (*timeseries.Series, error) {
	kept := points[:0]

	for _, p := range points {
		if len(kept) > 0 && p.Timestamp <= kept[len(kept)-1].Timestamp {
			continue
		}

		kept = append(kept, p)
	}

	if len(kept) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no data available for symbol %s", symbol)
	}

	return timeseries.FromPoints(kept)
}
