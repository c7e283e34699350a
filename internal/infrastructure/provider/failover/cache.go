package failover

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/core/ports"
)

// cachingSource is what CachedEmbedder needs from the chain underneath:
// embedding plus the model identities hits may be stored under.
type cachingSource interface {
	ports.Embedder
	ModelIDs() []string
}

// CachedEmbedder memoizes vectors for a TTL, keyed by text and model.
// A hit under any configured model counts, checked in failover order,
// so a query repeated after a provider switch reuses the old vector as
// long as its model family is still in the chain.
type CachedEmbedder struct {
	inner    cachingSource
	cache    *gocache.Cache
	onLookup func(hit bool)
}

func NewCachedEmbedder(inner cachingSource, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedEmbedder{
		inner: inner,
		cache: gocache.New(ttl, ttl),
	}
}

// WithLookupObserver registers a callback invoked once per EmbedQuery
// probe with the hit/miss outcome.
func (c *CachedEmbedder) WithLookupObserver(fn func(hit bool)) *CachedEmbedder {
	c.onLookup = fn
	return c
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	for _, modelID := range c.inner.ModelIDs() {
		if cached, ok := c.cache.Get(cacheKey(text, modelID)); ok {
			if c.onLookup != nil {
				c.onLookup(true)
			}
			return cached.(domain.EmbeddingVector), nil
		}
	}
	if c.onLookup != nil {
		c.onLookup(false)
	}

	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return domain.EmbeddingVector{}, err
	}
	c.cache.SetDefault(cacheKey(text, vector.Model), vector)
	return vector, nil
}

// EmbedTexts is the batch path used by the indexer; profile texts are
// rarely repeated so it only populates the cache, never probes it.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	vectors, err := c.inner.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		c.cache.SetDefault(cacheKey(texts[i], v.Model), v)
	}
	return vectors, nil
}

func cacheKey(text, modelID string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]) + ":" + modelID
}
