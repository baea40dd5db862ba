package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/livetemplate/stepdoc"
)

// countingAdapter records how often the inner adapter is hit.
type countingAdapter struct {
	stepdoc.Adapter
	loads int
}

func (c *countingAdapter) Load(ctx context.Context, id string) (stepdoc.Document, error) {
	c.loads++
	return c.Adapter.Load(ctx, id)
}

func TestCachedAdapterServesRepeatedLoads(t *testing.T) {
	ctx := context.Background()
	inner := &countingAdapter{Adapter: NewMemoryAdapter(nil)}
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewCachedAdapter(inner, time.Minute, zap.New(core))
	defer c.Close()

	rec, err := c.Save(ctx, "", sampleDocument(t))
	require.NoError(t, err)

	for range 3 {
		_, err := c.Load(ctx, rec.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.loads)
	assert.Equal(t, 1, logs.FilterMessage("cache miss").Len())
	assert.Equal(t, 2, logs.FilterMessage("cache hit").Len())
}

func TestCachedAdapterInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	inner := &countingAdapter{Adapter: NewMemoryAdapter(nil)}
	c := NewCachedAdapter(inner, time.Minute, nil)
	defer c.Close()

	rec, err := c.Save(ctx, "", sampleDocument(t))
	require.NoError(t, err)
	_, err = c.Load(ctx, rec.ID)
	require.NoError(t, err)

	edited := sampleDocument(t)
	edited.Title = "Edited"
	_, err = c.Save(ctx, rec.ID, edited)
	require.NoError(t, err)

	loaded, err := c.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", loaded.Title)
	assert.Equal(t, 2, inner.loads)

	require.NoError(t, c.Delete(ctx, rec.ID))
	_, err = c.Load(ctx, rec.ID)
	assert.True(t, stepdoc.IsNotFound(err))
}

func TestCachedAdapterDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingAdapter{Adapter: NewMemoryAdapter(nil)}
	c := NewCachedAdapter(inner, time.Minute, nil)
	defer c.Close()

	_, err := c.Load(ctx, "missing")
	assert.True(t, stepdoc.IsNotFound(err))
	_, err = c.Load(ctx, "missing")
	assert.True(t, stepdoc.IsNotFound(err))
	assert.Equal(t, 2, inner.loads)
}
