package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"go.uber.org/zap"
)

const (
	DefaultYahooBaseURL  = "https://query1.finance.yahoo.com"
	DefaultYahooInterval = "1d"
)

// YahooConfig configures a YahooLoader.
type YahooConfig struct {
	BaseURL  string
	Interval string
	Column   Column
	Client   *http.Client
}

// YahooLoader reads bars from the Yahoo Finance v8 chart endpoint.
type YahooLoader struct {
	baseURL  string
	interval string
	column   Column
	client   *http.Client
	logger   *zap.Logger
	now      func() time.Time
}

type yahooQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []yahooQuote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahooLoader creates a YahooLoader, filling unset config fields with defaults.
func NewYahooLoader(config YahooConfig, logger *zap.Logger) *YahooLoader {
	if config.BaseURL == "" {
		config.BaseURL = DefaultYahooBaseURL
	}

	if config.Interval == "" {
		config.Interval = DefaultYahooInterval
	}

	if config.Column == "" {
		config.Column = ColumnClose
	}

	if config.Client == nil {
		config.Client = &http.Client{Timeout: 30 * time.Second}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &YahooLoader{
		baseURL:  config.BaseURL,
		interval: config.Interval,
		column:   config.Column,
		client:   config.Client,
		logger:   logger,
		now:      time.Now,
	}
}

// Load implements Loader.
func (y *YahooLoader) Load(ctx context.Context, symbol string, start time.Time, end time.Time) (*timeseries.Series, error) {
	if end.IsZero() {
		end = y.now()
	}

	var period1 int64
	if !start.IsZero() {
		period1 = start.Unix()
	}

	query := url.Values{}
	query.Set("period1", strconv.FormatInt(period1, 10))
	query.Set("period2", strconv.FormatInt(end.Unix(), 10))
	query.Set("interval", y.interval)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), query.Encode())

	y.logger.Debug("Fetching series from Yahoo Finance",
		zap.String("symbol", symbol),
		zap.String("interval", y.interval),
		zap.String("url", endpoint),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataFetchFailed, "failed to build request", err)
	}

	req.Header.Set("User-Agent", "curl/8")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataFetchFailed, err, "failed to fetch %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "symbol %s not found", symbol)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeDataFetchFailed, "unexpected status %d fetching %s", resp.StatusCode, symbol)
	}

	var chart yahooChartResp
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to decode chart response", err)
	}

	if chart.Chart.Error != nil {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no data available for symbol %s", symbol)
	}

	result := chart.Chart.Result[0]
	values := y.pick(result.Indicators.Quote[0])

	if len(values) != len(result.Timestamp) {
		return nil, errors.Newf(errors.ErrCodeDataParseFailed,
			"chart response has %d timestamps but %d %s values", len(result.Timestamp), len(values), y.column)
	}

	points := make([]timeseries.Point, 0, len(values))

	for i, ts := range result.Timestamp {
		// Yahoo leaves gaps as nulls
		if values[i] == nil {
			continue
		}

		points = append(points, timeseries.Point{Timestamp: ts * 1000, Value: *values[i]})
	}

	return buildSeries(symbol, points)
}

func (y *YahooLoader) pick(quote yahooQuote) []*float64 {
	switch y.column {
	case ColumnOpen:
		return quote.Open
	case ColumnHigh:
		return quote.High
	case ColumnLow:
		return quote.Low
	case ColumnVolume:
		return quote.Volume
	default:
		return quote.Close
	}
}

// Close implements Loader.
func (y *YahooLoader) Close() error {
	y.client.CloseIdleConnections()

	return nil
}
