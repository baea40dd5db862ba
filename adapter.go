package stepdoc

import (
	"context"
	"time"
)

// Record describes a persisted document.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Adapter persists whole-document snapshots. Implementations live in pkg/storage.
type Adapter interface {
	// Save stores doc. An empty id creates a new record; otherwise the record with
	// that id is overwritten (or created under that id).
	Save(ctx context.Context, id string, doc Document) (Record, error)

	// Load returns the snapshot saved under id, or a NotFoundError.
	Load(ctx context.Context, id string) (Document, error)

	// List returns all records, most recently updated first.
	List(ctx context.Context) ([]Record, error)

	// Delete removes a record. Deleting a missing id returns a NotFoundError.
	Delete(ctx context.Context, id string) error
}
