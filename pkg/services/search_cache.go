package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sebench/evidence-engine/pkg/models"
)

// SearchCache caches search results keyed by a criteria digest. Any article
// mutation bumps a generation counter, which orphans every key written under
// the previous generation; orphans age out via TTL. Correctness never depends
// on the cache: every method degrades to a miss or a no-op on error or when
// no Redis client is configured.
type SearchCache interface {
	// Get returns the cached results for the criteria, plus the generation
	// observed at read time. Callers must hand that generation back to Set:
	// keying the write by the read-time generation means a result computed
	// before a concurrent invalidation lands under the old generation and
	// is never served.
	Get(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, int64, bool)
	Set(ctx context.Context, criteria models.SearchCriteria, generation int64, articles []*models.Article)
	Invalidate(ctx context.Context)
}

type searchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

const searchGenerationKey = "articles:search:gen"

// generationUnknown marks a Get that could not observe the generation.
// Set refuses to write under it rather than guess a key.
const generationUnknown int64 = -1

// NewSearchCache creates a SearchCache. A nil client disables caching; every
// Get misses and Set/Invalidate are no-ops.
func NewSearchCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) SearchCache {
	return &searchCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

var _ SearchCache = (*searchCache)(nil)

func (c *searchCache) Get(ctx context.Context, criteria models.SearchCriteria) ([]*models.Article, int64, bool) {
	if c.client == nil {
		return nil, generationUnknown, false
	}

	gen, err := c.client.Get(ctx, searchGenerationKey).Int64()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Search cache generation read failed", zap.Error(err))
			return nil, generationUnknown, false
		}
		gen = 0 // counter not created yet
	}

	key, err := cacheKey(gen, criteria)
	if err != nil {
		return nil, generationUnknown, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Search cache read failed", zap.Error(err))
		}
		return nil, gen, false
	}

	var articles []*models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		c.logger.Debug("Search cache entry unreadable", zap.Error(err))
		return nil, gen, false
	}

	return articles, gen, true
}

func (c *searchCache) Set(ctx context.Context, criteria models.SearchCriteria, generation int64, articles []*models.Article) {
	if c.client == nil || generation == generationUnknown {
		return
	}

	key, err := cacheKey(generation, criteria)
	if err != nil {
		return
	}

	data, err := json.Marshal(articles)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("Search cache write failed", zap.Error(err))
	}
}

func (c *searchCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}

	if err := c.client.Incr(ctx, searchGenerationKey).Err(); err != nil {
		c.logger.Debug("Search cache invalidation failed", zap.Error(err))
	}
}

// cacheKey builds the cache key for a generation and criteria digest.
func cacheKey(generation int64, criteria models.SearchCriteria) (string, error) {
	payload, err := json.Marshal(criteria)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(payload)

	return fmt.Sprintf("articles:search:%d:%s", generation, hex.EncodeToString(digest[:])), nil
}
