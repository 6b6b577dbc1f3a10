package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/models"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheLookupRecorder interface {
	RecordCacheLookup(hit bool)
}

// AvailabilityCache is a read-through cache for resolved availability days.
// All methods are best-effort: cache failures are logged and treated as
// misses so a Redis outage never blocks planning.
type AvailabilityCache struct {
	store   cacheStore
	ttl     time.Duration
	enabled bool
	metrics cacheLookupRecorder
	logger  *zap.Logger
}

// NewAvailabilityCache constructs the cache. A nil store disables it;
// metrics may be nil.
func NewAvailabilityCache(store cacheStore, ttl time.Duration, enabled bool, metrics cacheLookupRecorder, logger *zap.Logger) *AvailabilityCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		enabled = false
	}
	return &AvailabilityCache{store: store, ttl: ttl, enabled: enabled, metrics: metrics, logger: logger}
}

func availabilityKey(learnerID string, from, to time.Time) string {
	return fmt.Sprintf("availability:%s:%s:%s", learnerID,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Get returns cached days for the learner window, or false on a miss.
func (c *AvailabilityCache) Get(ctx context.Context, learnerID string, from, to time.Time) ([]models.AvailabilityDay, bool) {
	if !c.enabled {
		return nil, false
	}
	var days []models.AvailabilityDay
	if err := c.store.Get(ctx, availabilityKey(learnerID, from, to), &days); err != nil {
		if c.metrics != nil {
			c.metrics.RecordCacheLookup(false)
		}
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(true)
	}
	return days, true
}

// Put stores days for the learner window.
func (c *AvailabilityCache) Put(ctx context.Context, learnerID string, from, to time.Time, days []models.AvailabilityDay) {
	if !c.enabled {
		return
	}
	if err := c.store.Set(ctx, availabilityKey(learnerID, from, to), days, c.ttl); err != nil {
		c.logger.Warn("availability cache write failed",
			zap.String("learner_id", learnerID), zap.Error(err))
	}
}

// Invalidate drops every cached window for the given learners. Called after
// plan application and blackout creation, which change what counts as free.
func (c *AvailabilityCache) Invalidate(ctx context.Context, learnerIDs []string) {
	if !c.enabled {
		return
	}
	for _, learnerID := range learnerIDs {
		pattern := fmt.Sprintf("availability:%s:*", learnerID)
		if err := c.store.DeleteByPattern(ctx, pattern); err != nil {
			c.logger.Warn("availability cache invalidation failed",
				zap.String("learner_id", learnerID), zap.Error(err))
		}
	}
}
