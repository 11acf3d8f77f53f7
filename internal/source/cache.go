package source

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// defaultCacheSize bounds the per-tool result cache. Deepening rounds often
// re-probe queries a sibling round already issued.
const defaultCacheSize = 128

// Cached wraps a SourceTool with an LRU query cache. Errors are never
// cached; only successful result sets are.
type Cached struct {
	inner SourceTool
	cache *lru.Cache[string, *models.ResultSet]
}

// WithCache wraps a tool in an LRU cache of the given size. A size of zero
// or less uses the default.
func WithCache(inner SourceTool, size int) (*Cached, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *models.ResultSet](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Name returns the wrapped tool's capability name.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Search returns the cached result set for a repeated query, otherwise
// delegates to the wrapped tool and caches the outcome.
func (c *Cached) Search(ctx context.Context, query string) (*models.ResultSet, error) {
	if rs, ok := c.cache.Get(query); ok {
		return rs, nil
	}

	rs, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Add(query, rs)
	return rs, nil
}

// Len returns the number of cached queries.
func (c *Cached) Len() int {
	return c.cache.Len()
}
