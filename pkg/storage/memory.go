package storage

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/livetemplate/stepdoc"
)

type memoryEntry struct {
	record stepdoc.Record
	doc    stepdoc.Document
}

// MemoryAdapter keeps documents in process memory. Entries never expire; it is
// meant for tests and throwaway sessions.
type MemoryAdapter struct {
	cache *cache.Cache
	newID stepdoc.IDFunc
	now   func() time.Time
}

// NewMemoryAdapter creates an empty in-memory adapter. A nil ids uses UUIDs.
func NewMemoryAdapter(ids stepdoc.IDFunc) *MemoryAdapter {
	if ids == nil {
		ids = stepdoc.UUIDs
	}
	return &MemoryAdapter{
		cache: cache.New(cache.NoExpiration, 0),
		newID: ids,
		now:   time.Now,
	}
}

// Save implements stepdoc.Adapter.
func (m *MemoryAdapter) Save(ctx context.Context, id string, doc stepdoc.Document) (stepdoc.Record, error) {
	if err := ctx.Err(); err != nil {
		return stepdoc.Record{}, &stepdoc.IOError{Op: "save", Err: err}
	}
	if id == "" {
		id = m.newID()
	}

	now := m.now().UTC()
	rec := stepdoc.Record{ID: id, Title: doc.Title, CreatedAt: now, UpdatedAt: now}
	if x, found := m.cache.Get(id); found {
		rec.CreatedAt = x.(memoryEntry).record.CreatedAt
	}

	m.cache.Set(id, memoryEntry{record: rec, doc: doc.Normalized()}, cache.NoExpiration)
	return rec, nil
}

// Load implements stepdoc.Adapter.
func (m *MemoryAdapter) Load(ctx context.Context, id string) (stepdoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return stepdoc.Document{}, &stepdoc.IOError{Op: "load", Err: err}
	}
	x, found := m.cache.Get(id)
	if !found {
		return stepdoc.Document{}, &stepdoc.NotFoundError{Kind: "document", ID: id}
	}
	return x.(memoryEntry).doc, nil
}

// List implements stepdoc.Adapter.
func (m *MemoryAdapter) List(ctx context.Context) ([]stepdoc.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &stepdoc.IOError{Op: "list", Err: err}
	}
	items := m.cache.Items()
	records := make([]stepdoc.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.Object.(memoryEntry).record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Delete implements stepdoc.Adapter.
func (m *MemoryAdapter) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &stepdoc.IOError{Op: "delete", Err: err}
	}
	if _, found := m.cache.Get(id); !found {
		return &stepdoc.NotFoundError{Kind: "document", ID: id}
	}
	m.cache.Delete(id)
	return nil
}
