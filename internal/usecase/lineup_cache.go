package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/platform/cache"
)

const lineupCachePrefix = "lineup:"

// LineupCache remembers which fixtures already had a complete lineup captured. The live
// cadence only starts once this is true.
type LineupCache struct {
	store *cache.Store[bool]
}

func NewLineupCache(ttl time.Duration) *LineupCache {
	return &LineupCache{store: cache.NewStore[bool](ttl)}
}

func (c *LineupCache) MarkComplete(ctx context.Context, fixtureExternalID int64) {
	c.store.Set(ctx, lineupCacheKey(fixtureExternalID), true)
}

func (c *LineupCache) IsComplete(ctx context.Context, fixtureExternalID int64) bool {
	complete, ok := c.store.Get(ctx, lineupCacheKey(fixtureExternalID))
	return ok && complete
}

func (c *LineupCache) Forget(ctx context.Context, fixtureExternalID int64) {
	c.store.Delete(ctx, lineupCacheKey(fixtureExternalID))
}

func lineupCacheKey(fixtureExternalID int64) string {
	return lineupCachePrefix + strconv.FormatInt(fixtureExternalID, 10)
}
