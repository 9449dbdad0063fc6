package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/metrics"
)

// Store is the key-value surface the summary cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// SummaryCache keeps computed analytics per run. Keys embed the run id, so a
// new run never reads the summaries of an older one.
type SummaryCache struct {
	store  Store
	ttl    time.Duration
	logger ectologger.Logger
}

func NewSummaryCache(store Store, ttl time.Duration, logger ectologger.Logger) *SummaryCache {
	return &SummaryCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func KPIKey(runID string, filter analytics.Filter) string {
	return fmt.Sprintf("clover:kpis:%s:%s", runID, filter.Key())
}

func BreakdownKey(runID, dimension string, limit int, filter analytics.Filter) string {
	return fmt.Sprintf("clover:breakdown:%s:%s:%d:%s", runID, dimension, limit, filter.Key())
}

func HotspotKey(runID string, limit int, filter analytics.Filter) string {
	return fmt.Sprintf("clover:hotspots:%s:%d:%s", runID, limit, filter.Key())
}

func HeatmapKey(runID string, filter analytics.Filter) string {
	return fmt.Sprintf("clover:heatmap:%s:%s", runID, filter.Key())
}

// Fetch returns the value cached at key, computing and storing it on a miss.
// A nil cache always computes. Cache failures are logged and never fail the
// lookup.
func Fetch[T any](ctx context.Context, c *SummaryCache, key string, compute func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return compute(ctx)
	}

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return cached, nil
		}
		c.logger.WithContext(ctx).WithField("key", key).Warn("Discarding undecodable cache entry")
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	case errors.Is(err, ErrCacheMiss):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("Summary cache read failed")
		metrics.CacheRequests.WithLabelValues("error").Inc()
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	b, err := json.Marshal(value)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("Failed to encode cache entry")
		return value, nil
	}
	if err := c.store.Set(ctx, key, string(b), c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("Summary cache write failed")
	}
	return value, nil
}

// Prime stores the KPIs of a freshly persisted run under the unfiltered key.
func (c *SummaryCache) Prime(ctx context.Context, runID string, kpis analytics.KPIs) error {
	b, err := json.Marshal(kpis)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, KPIKey(runID, analytics.Filter{}), string(b), c.ttl)
}
