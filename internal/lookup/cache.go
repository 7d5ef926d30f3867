package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// DefaultCacheTTL bounds how long a term's candidates stay cached.
const DefaultCacheTTL = 2 * time.Minute

// CachedSource wraps a Source with a Redis read-through cache and
// singleflight de-duplication so identical in-flight terms share one query.
// Cache failures degrade to the underlying source, logged only.
type CachedSource struct {
	next   Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedSource wraps next with caching.
func NewCachedSource(next Source, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(kind voucher.EntityKind, term string, limit int) string {
	return fmt.Sprintf("vouchergrid:lookup:%s:%d:%s", kind, limit, strings.ToLower(term))
}

// Search implements Source.
func (c *CachedSource) Search(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]Candidate, error) {
	key := cacheKey(kind, term, limit)

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			var cached []Candidate
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
		} else if err != redis.Nil && c.logger != nil {
			c.logger.Warn("lookup cache read", slog.Any("error", err))
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		candidates, err := c.next.Search(ctx, kind, term, limit)
		if err != nil {
			return nil, err
		}
		if c.rdb != nil {
			if data, jsonErr := json.Marshal(candidates); jsonErr == nil {
				if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil && c.logger != nil {
					c.logger.Warn("lookup cache write", slog.Any("error", setErr))
				}
			}
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	candidates, _ := v.([]Candidate)
	return candidates, nil
}
