package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-series/pkg/timeseries"
)

// DataGenerator generates realistic price series for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a series is generated.
type GeneratorConfig struct {
	// StartTime is the timestamp of the first point
	StartTime time.Time
	// Interval is the average duration between points
	Interval time.Duration
	// Jitter spreads each gap uniformly within Interval*(1±Jitter) (0.0 to 1.0).
	// Zero produces a regular grid.
	Jitter float64
	// Count is the number of points to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per step)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:    time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:     time.Minute,
		Jitter:       0.5,
		Count:        10000,
		InitialPrice: 100.0,
		Volatility:   0.002, // 0.2% per step
		Trend:        0.0,   // neutral
	}
}

// GeneratePoints creates the observations described by config.
// Prices follow a geometric Brownian motion; timestamps are in milliseconds and strictly increase.
func (g *DataGenerator) GeneratePoints(config GeneratorConfig) []timeseries.Point {
	points := make([]timeseries.Point, config.Count)
	price := config.InitialPrice
	current := config.StartTime.UnixMilli()
	intervalMs := config.Interval.Milliseconds()

	for i := 0; i < config.Count; i++ {
		points[i] = timeseries.Point{
			Timestamp: current,
			Value:     roundToDecimals(price, 4),
		}

		// Using Box-Muller transform for normal distribution
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count) // Distribute trend across steps

		next := price * (1 + config.Volatility*z + drift)
		if next <= 0 {
			next = price * 0.99 // Prevent negative prices
		}

		price = next

		gap := intervalMs
		if config.Jitter > 0 {
			gap = int64(float64(intervalMs) * (1 + (g.rng.Float64()*2-1)*config.Jitter))
		}

		current += max(gap, 1)
	}

	return points
}

// Generate creates a Series based on the configuration.
func (g *DataGenerator) Generate(config GeneratorConfig) *timeseries.Series {
	series, err := timeseries.FromPoints(g.GeneratePoints(config))
	if err != nil {
		// GeneratePoints always yields strictly increasing timestamps
		panic(err)
	}

	return series
}

// Generate10K is a convenience function to generate 10,000 irregular points
// with default settings for benchmarking.
func Generate10K() *timeseries.Series {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
