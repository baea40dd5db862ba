package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/livetemplate/stepdoc"
	"github.com/livetemplate/stepdoc/internal/cache"
)

// CachedAdapter serves repeated loads from a TTL cache. Saves and deletes go
// straight to the inner adapter and invalidate the cached snapshot.
type CachedAdapter struct {
	inner stepdoc.Adapter
	cache *cache.MemoryCache[stepdoc.Document]
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedAdapter wraps inner. Call Close to stop the cache's sweep goroutine.
func NewCachedAdapter(inner stepdoc.Adapter, ttl time.Duration, log *zap.Logger) *CachedAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedAdapter{
		inner: inner,
		cache: cache.NewMemoryCache[stepdoc.Document](),
		ttl:   ttl,
		log:   log.Named("cache"),
	}
}

// Save implements stepdoc.Adapter.
func (c *CachedAdapter) Save(ctx context.Context, id string, doc stepdoc.Document) (stepdoc.Record, error) {
	rec, err := c.inner.Save(ctx, id, doc)
	if err != nil {
		return rec, err
	}
	c.cache.Invalidate(rec.ID)
	return rec, nil
}

// Load implements stepdoc.Adapter.
func (c *CachedAdapter) Load(ctx context.Context, id string) (stepdoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return stepdoc.Document{}, &stepdoc.IOError{Op: "load", Err: err}
	}
	if doc, found := c.cache.Get(id); found {
		c.log.Debug("cache hit", zap.String("id", id))
		return doc, nil
	}

	c.log.Debug("cache miss", zap.String("id", id))
	doc, err := c.inner.Load(ctx, id)
	if err != nil {
		return doc, err
	}
	c.cache.Set(id, doc, c.ttl)
	return doc, nil
}

// List implements stepdoc.Adapter. Listings are never cached.
func (c *CachedAdapter) List(ctx context.Context) ([]stepdoc.Record, error) {
	return c.inner.List(ctx)
}

// Delete implements stepdoc.Adapter.
func (c *CachedAdapter) Delete(ctx context.Context, id string) error {
	c.cache.Invalidate(id)
	return c.inner.Delete(ctx, id)
}

// Close stops the cache and closes the inner adapter when it holds resources.
func (c *CachedAdapter) Close() error {
	c.cache.Stop()
	if closer, ok := c.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
