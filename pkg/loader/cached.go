package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a loaded series is served from memory.
const DefaultCacheTTL = 5 * time.Minute

// CachedLoader wraps a Loader and keeps loaded series in memory for a TTL.
// Concurrent misses for the same key share a single underlying Load.
// Errors are never cached.
//
// Cached series are shared between callers and must be treated as read-only.
type CachedLoader struct {
	underlying Loader
	cache      *cache.Cache
	group      singleflight.Group
	logger     *zap.Logger
}

// NewCachedLoader creates a CachedLoader. A ttl <= 0 uses DefaultCacheTTL.
func NewCachedLoader(underlying Loader, ttl time.Duration, logger *zap.Logger) *CachedLoader {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedLoader{
		underlying: underlying,
		cache:      cache.New(ttl, 2*ttl),
		logger:     logger,
	}
}

// Load implements Loader.
func (c *CachedLoader) Load(ctx context.Context, symbol string, start time.Time, end time.Time) (*timeseries.Series, error) {
	key := cacheKey(symbol, start, end)

	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("Loader cache hit", zap.String("key", key))

		return cached.(*timeseries.Series), nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		series, err := c.underlying.Load(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}

		c.cache.SetDefault(key, series)

		return series, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*timeseries.Series), nil
}

// Purge drops every cached series.
func (c *CachedLoader) Purge() {
	c.cache.Flush()
}

// Close implements Loader and closes the underlying loader.
func (c *CachedLoader) Close() error {
	c.cache.Flush()

	return c.underlying.Close()
}

// zero bounds stay distinguishable from the epoch
func cacheKey(symbol string, start time.Time, end time.Time) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}

		return fmt.Sprintf("%d", t.UnixMilli())
	}

	return symbol + "|" + bound(start) + "|" + bound(end)
}
